package domain

import "time"

// Submission is the structured record extracted from an uploaded document.
// Data holds the current snapshot; CurrentVersion equals the number of
// committed versions.
type Submission struct {
	ID              string             `json:"submission_id"`
	FolderID        string             `json:"folder_id,omitempty"`
	DocumentID      string             `json:"document_id,omitempty"`
	Status          string             `json:"status"` // extracted, updated, filled
	CurrentVersion  int                `json:"current_version"`
	Data            map[string]any     `json:"data"`
	FieldConfidence map[string]float64 `json:"field_confidence,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Submission status constants
const (
	StatusExtracted = "extracted"
	StatusUpdated   = "updated"
	StatusFilled    = "filled"
)

// Version actions
const (
	ActionExtract  = "extract"
	ActionUpdate   = "update"
	ActionFill     = "fill"
	ActionRollback = "rollback"
)

// ValidAction reports whether a commit action is one of the known kinds.
func ValidAction(action string) bool {
	return action == ActionExtract ||
		action == ActionUpdate ||
		action == ActionFill ||
		action == ActionRollback
}

// FieldChange records one field-level difference between two snapshots.
// OldValue is unset for added fields, NewValue for deleted ones.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// Changes is the computed diff stored on every version.
type Changes struct {
	Added    []FieldChange `json:"added"`
	Modified []FieldChange `json:"modified"`
	Deleted  []FieldChange `json:"deleted"`
}

// Total returns the number of changed fields across all buckets.
func (c Changes) Total() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Version is one immutable entry in a submission's history. Data is the
// full materialized snapshot the commit produced; versions are never
// mutated or deleted.
type Version struct {
	ID            string         `json:"version_id"`
	SubmissionID  string         `json:"submission_id"`
	VersionNumber int            `json:"version_number"`
	Action        string         `json:"action"`
	Actor         string         `json:"created_by"`
	Notes         string         `json:"notes,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	Changes       Changes        `json:"changes"`
	CreatedAt     time.Time      `json:"created_at"`
}

// AuditEntry is the denormalized trail row written 1:1 with each version.
type AuditEntry struct {
	ID            string    `json:"audit_id"`
	SubmissionID  string    `json:"submission_id"`
	VersionID     string    `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	Action        string    `json:"action"`
	Actor         string    `json:"user"`
	Notes         string    `json:"notes,omitempty"`
	AddedCount    int       `json:"added"`
	ModifiedCount int       `json:"modified"`
	DeletedCount  int       `json:"deleted"`
	CreatedAt     time.Time `json:"timestamp"`
}

// VersionRef identifies one side of a version comparison.
type VersionRef struct {
	VersionID     string    `json:"version_id"`
	VersionNumber int       `json:"version_number"`
	Actor         string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// VersionComparison is the diff between two stored versions.
type VersionComparison struct {
	From    VersionRef `json:"from_version"`
	To      VersionRef `json:"to_version"`
	Changes Changes    `json:"changes"`
}

// FieldConfidenceEntry is one row of the low-confidence projection.
type FieldConfidenceEntry struct {
	Field      string  `json:"field"`
	Confidence float64 `json:"confidence"`
}

// CommitRequest carries one snapshot mutation into the version store.
type CommitRequest struct {
	SubmissionID string
	Data         map[string]any
	Action       string
	Actor        string
	Notes        string
}
