package service

import (
	"context"
	"fmt"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
)

// confidenceMargin is how much higher one source's extraction confidence
// must be before its value is recommended over the other side's.
const confidenceMargin = 0.2

// SuggestResolution recommends a side for one conflict. Confidence
// scores, when known for both sides, drive the recommendation; without
// them the conflict stays flagged for manual review. Low-severity
// numeric conflicts additionally offer the averaged value, and both
// raw values are always listed as alternatives.
func SuggestResolution(c domain.Conflict, confA, confB float64, haveConfidence bool) domain.Suggestion {
	sug := domain.Suggestion{
		Field:             c.Field,
		RecommendedAction: domain.ActionManualReview,
		Alternatives:      []domain.Alternative{},
	}

	if haveConfidence {
		switch {
		case confA > confB+confidenceMargin:
			sug.RecommendedAction = domain.ActionUseA
			sug.RecommendedValue = c.ValueA
			sug.Reasoning = fmt.Sprintf("%s has higher confidence (%.0f%% vs %.0f%%)",
				c.SourceA, confA*100, confB*100)
		case confB > confA+confidenceMargin:
			sug.RecommendedAction = domain.ActionUseB
			sug.RecommendedValue = c.ValueB
			sug.Reasoning = fmt.Sprintf("%s has higher confidence (%.0f%% vs %.0f%%)",
				c.SourceB, confB*100, confA*100)
		}
	}

	if c.Severity == domain.SeverityLow {
		if a, okA := asFloat(c.ValueA); okA {
			if b, okB := asFloat(c.ValueB); okB {
				sug.Alternatives = append(sug.Alternatives, domain.Alternative{
					Action:    domain.ActionAverage,
					Value:     (a + b) / 2,
					Reasoning: "Use average of both values",
				})
			}
		}
	}

	sug.Alternatives = append(sug.Alternatives,
		domain.Alternative{
			Action:    domain.ActionUseA,
			Value:     c.ValueA,
			Reasoning: fmt.Sprintf("Use value from %s", c.SourceA),
		},
		domain.Alternative{
			Action:    domain.ActionUseB,
			Value:     c.ValueB,
			Reasoning: fmt.Sprintf("Use value from %s", c.SourceB),
		},
	)
	return sug
}

// SuggestResolutions recommends a side for every conflict of a stored
// comparison. The confidence maps are keyed by field path and both
// optional; a field needs a score on both sides before one is
// recommended over the other.
func (s *ComparisonService) SuggestResolutions(
	ctx context.Context,
	comparisonID string,
	confidenceA, confidenceB map[string]float64,
) ([]domain.Suggestion, error) {
	cmp, err := s.repo.Get(ctx, comparisonID)
	if err != nil {
		return nil, err
	}

	suggestions := make([]domain.Suggestion, 0, len(cmp.Conflicts))
	for _, c := range cmp.Conflicts {
		a, okA := confidenceA[c.Field]
		b, okB := confidenceB[c.Field]
		suggestions = append(suggestions, SuggestResolution(c, a, b, okA && okB))
	}
	return suggestions, nil
}
