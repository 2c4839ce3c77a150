package service

import (
	"math"
	"sort"
	"strings"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
	"github.com/brokerdesk/submission-backend/internal/fieldpath"
)

// Config holds the severity tuning for the comparator. Critical fields
// and tolerances are configuration, not code: which paths identify the
// insured or carry money varies per deployment.
type Config struct {
	CriticalFields      []string
	NumericTolerance    float64
	DivergenceThreshold float64
	DefaultSource       string
}

// Compare classifies every field path of the two snapshots into exactly
// one of matching / only_in_a / only_in_b / conflicts. It is pure:
// identical inputs always produce identical output, in sorted path
// order, with no clock or randomness involved.
func Compare(cfg Config, snapshotA, snapshotB map[string]any, labelA, labelB string) *domain.Comparison {
	flatA := fieldpath.Flatten(snapshotA)
	flatB := fieldpath.Flatten(snapshotB)

	paths := make(map[string]struct{}, len(flatA)+len(flatB))
	for k := range flatA {
		paths[k] = struct{}{}
	}
	for k := range flatB {
		paths[k] = struct{}{}
	}
	ordered := make([]string, 0, len(paths))
	for k := range paths {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	cmp := &domain.Comparison{
		SourceALabel: labelA,
		SourceBLabel: labelB,
		SnapshotA:    fieldpath.Clone(snapshotA),
		SnapshotB:    fieldpath.Clone(snapshotB),
		Matching:     []domain.MatchingField{},
		OnlyInA:      []domain.SourceField{},
		OnlyInB:      []domain.SourceField{},
		Conflicts:    []domain.Conflict{},
	}

	for _, path := range ordered {
		valueA, inA := flatA[path]
		valueB, inB := flatB[path]

		switch {
		case inA && inB && leafEqual(valueA, valueB):
			cmp.Matching = append(cmp.Matching, domain.MatchingField{Field: path, Value: valueA})
		case inA && inB:
			cmp.Conflicts = append(cmp.Conflicts, domain.Conflict{
				Field:    path,
				ValueA:   valueA,
				ValueB:   valueB,
				SourceA:  labelA,
				SourceB:  labelB,
				Severity: severityFor(cfg, path, valueA, valueB),
			})
		case inA:
			cmp.OnlyInA = append(cmp.OnlyInA, domain.SourceField{Field: path, Value: valueA, Source: labelA})
		default:
			cmp.OnlyInB = append(cmp.OnlyInB, domain.SourceField{Field: path, Value: valueB, Source: labelB})
		}
	}

	cmp.Summary = domain.Summary{
		Conflicts:   len(cmp.Conflicts),
		OnlyInA:     len(cmp.OnlyInA),
		OnlyInB:     len(cmp.OnlyInB),
		Matching:    len(cmp.Matching),
		TotalFields: len(ordered),
	}

	return cmp
}

// severityFor ranks one conflict. High means a critical field diverged
// beyond tolerance; medium means a critical field within tolerance or a
// non-critical field with large divergence; low is everything else
// (small numeric drift, formatting-only string differences).
func severityFor(cfg Config, field string, valueA, valueB any) string {
	critical := fieldpath.MatchAny(cfg.CriticalFields, field)

	na, aNum := asFloat(valueA)
	nb, bNum := asFloat(valueB)
	if aNum && bNum {
		rel := relativeDiff(na, nb)
		if critical {
			if rel > cfg.NumericTolerance {
				return domain.SeverityHigh
			}
			return domain.SeverityMedium
		}
		if rel > cfg.DivergenceThreshold {
			return domain.SeverityMedium
		}
		return domain.SeverityLow
	}

	// Non-numeric: exact inequality counts as beyond tolerance, but a
	// case/whitespace-only difference is treated as formatting drift.
	formattingOnly := normalizedEqual(valueA, valueB)
	if critical {
		if formattingOnly {
			return domain.SeverityMedium
		}
		return domain.SeverityHigh
	}
	if formattingOnly {
		return domain.SeverityLow
	}
	return domain.SeverityMedium
}

func relativeDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}

func normalizedEqual(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(as), strings.TrimSpace(bs))
}

func leafEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	if as, aok := a.([]any); aok {
		bs, bok := b.([]any)
		if !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !leafEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
