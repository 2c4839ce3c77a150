package domain

import "time"

// Conflict severities
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Resolution actions
const (
	ActionUseA = "use_a"
	ActionUseB = "use_b"
)

// Suggestion-only actions. Neither is accepted by Resolve; a reviewer
// picking the averaged value submits it as an explicit edit.
const (
	ActionManualReview = "manual_review"
	ActionAverage      = "average"
)

// Conflict is a field path present in both snapshots with different
// values. Severity triages reviewer attention.
type Conflict struct {
	Field    string `json:"field"`
	ValueA   any    `json:"value_a"`
	ValueB   any    `json:"value_b"`
	SourceA  string `json:"source_a"`
	SourceB  string `json:"source_b"`
	Severity string `json:"severity"`
}

// MatchingField is a path with the same value in both snapshots.
type MatchingField struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// SourceField is a path present in only one snapshot.
type SourceField struct {
	Field  string `json:"field"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

// Summary gives bucket counts for a comparison.
type Summary struct {
	Conflicts   int `json:"conflicts"`
	OnlyInA     int `json:"only_in_a"`
	OnlyInB     int `json:"only_in_b"`
	Matching    int `json:"matching"`
	TotalFields int `json:"total_fields"`
}

// Comparison classifies every field path of two snapshots into exactly
// one bucket. Both snapshots are kept so a resolution batch can rebuild
// the merged record later without re-reading the sources.
type Comparison struct {
	ID           string          `json:"comparison_id"`
	SubmissionID string          `json:"submission_id,omitempty"`
	SourceALabel string          `json:"source_a_label"`
	SourceBLabel string          `json:"source_b_label"`
	SnapshotA    map[string]any  `json:"snapshot_a"`
	SnapshotB    map[string]any  `json:"snapshot_b"`
	Summary      Summary         `json:"summary"`
	Matching     []MatchingField `json:"matching"`
	OnlyInA      []SourceField   `json:"only_in_a"`
	OnlyInB      []SourceField   `json:"only_in_b"`
	Conflicts    []Conflict      `json:"conflicts"`
	ComparedAt   time.Time       `json:"compared_at"`
}

// Conflict returns the conflict for a field path, if any.
func (c *Comparison) Conflict(field string) (*Conflict, bool) {
	for i := range c.Conflicts {
		if c.Conflicts[i].Field == field {
			return &c.Conflicts[i], true
		}
	}
	return nil, false
}

// Resolution is an operator's decision for one conflicting field.
type Resolution struct {
	Field     string `json:"field"`
	Action    string `json:"action"` // use_a | use_b
	Reasoning string `json:"reasoning,omitempty"`
}

// Alternative is a secondary option offered alongside a suggestion.
type Alternative struct {
	Action    string `json:"action"`
	Value     any    `json:"value"`
	Reasoning string `json:"reasoning"`
}

// Suggestion recommends how to resolve one conflict. Without enough
// context to pick a side, RecommendedAction stays manual_review and
// only the alternatives are offered.
type Suggestion struct {
	Field             string        `json:"field"`
	RecommendedAction string        `json:"recommended_action"`
	RecommendedValue  any           `json:"recommended_value,omitempty"`
	Reasoning         string        `json:"reasoning,omitempty"`
	Alternatives      []Alternative `json:"alternatives"`
}

// ResolvedField records the outcome of applying one resolution.
type ResolvedField struct {
	Field     string `json:"field"`
	Action    string `json:"action"`
	Source    string `json:"source"`
	Value     any    `json:"value"`
	Reasoning string `json:"reasoning,omitempty"`
}
