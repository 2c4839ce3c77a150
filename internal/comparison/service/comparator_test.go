package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
)

func testConfig() Config {
	return Config{
		CriticalFields: []string{
			"applicant.business_name", "policy_number", "effective_date", "expiration_date",
		},
		NumericTolerance:    0.01,
		DivergenceThreshold: 0.3,
		DefaultSource:       "b",
	}
}

func TestCompare_Buckets(t *testing.T) {
	snapA := map[string]any{
		"applicant": map[string]any{
			"business_name": "Acme",
			"state":         "OH",
		},
		"premium":       5000.0,
		"broker_email":  "a@b.com",
		"policy_number": "POL-1",
	}
	snapB := map[string]any{
		"applicant": map[string]any{
			"business_name": "Acme Corp",
			"state":         "OH",
		},
		"premium":        5000.0,
		"policy_number":  "POL-1",
		"effective_date": "2026-01-01",
	}

	cmp := Compare(testConfig(), snapA, snapB, "email", "portal")

	t.Run("every path lands in exactly one bucket", func(t *testing.T) {
		total := len(cmp.Matching) + len(cmp.OnlyInA) + len(cmp.OnlyInB) + len(cmp.Conflicts)
		assert.Equal(t, cmp.Summary.TotalFields, total)
		assert.Equal(t, 6, total)
	})

	t.Run("identical leaves match", func(t *testing.T) {
		fields := make([]string, 0, len(cmp.Matching))
		for _, m := range cmp.Matching {
			fields = append(fields, m.Field)
		}
		assert.Equal(t, []string{"applicant.state", "policy_number", "premium"}, fields)
	})

	t.Run("one-sided fields carry their source label", func(t *testing.T) {
		require.Len(t, cmp.OnlyInA, 1)
		assert.Equal(t, "broker_email", cmp.OnlyInA[0].Field)
		assert.Equal(t, "email", cmp.OnlyInA[0].Source)

		require.Len(t, cmp.OnlyInB, 1)
		assert.Equal(t, "effective_date", cmp.OnlyInB[0].Field)
		assert.Equal(t, "portal", cmp.OnlyInB[0].Source)
	})

	t.Run("diverging values conflict with both sides recorded", func(t *testing.T) {
		require.Len(t, cmp.Conflicts, 1)
		c := cmp.Conflicts[0]
		assert.Equal(t, "applicant.business_name", c.Field)
		assert.Equal(t, "Acme", c.ValueA)
		assert.Equal(t, "Acme Corp", c.ValueB)
		assert.Equal(t, domain.SeverityHigh, c.Severity)
	})

	t.Run("summary counts agree with buckets", func(t *testing.T) {
		assert.Equal(t, 3, cmp.Summary.Matching)
		assert.Equal(t, 1, cmp.Summary.OnlyInA)
		assert.Equal(t, 1, cmp.Summary.OnlyInB)
		assert.Equal(t, 1, cmp.Summary.Conflicts)
	})
}

func TestCompare_Deterministic(t *testing.T) {
	snapA := map[string]any{"z": 1, "a": map[string]any{"x": "p", "y": "q"}, "m": 3.5}
	snapB := map[string]any{"z": 2, "a": map[string]any{"x": "p"}, "n": true}

	first := Compare(testConfig(), snapA, snapB, "a", "b")
	for i := 0; i < 10; i++ {
		again := Compare(testConfig(), snapA, snapB, "a", "b")
		assert.Equal(t, first.Matching, again.Matching)
		assert.Equal(t, first.OnlyInA, again.OnlyInA)
		assert.Equal(t, first.OnlyInB, again.OnlyInB)
		assert.Equal(t, first.Conflicts, again.Conflicts)
	}
}

func TestSeverityFor(t *testing.T) {
	cfg := testConfig()

	t.Run("critical numeric beyond tolerance is high", func(t *testing.T) {
		cfg := cfg
		cfg.CriticalFields = append(cfg.CriticalFields, "premium")
		assert.Equal(t, domain.SeverityHigh, severityFor(cfg, "premium", 5000.0, 6000.0))
	})

	t.Run("critical numeric within tolerance is medium", func(t *testing.T) {
		cfg := cfg
		cfg.CriticalFields = append(cfg.CriticalFields, "premium")
		assert.Equal(t, domain.SeverityMedium, severityFor(cfg, "premium", 5000.0, 5001.0))
	})

	t.Run("non-critical numeric with large divergence is medium", func(t *testing.T) {
		assert.Equal(t, domain.SeverityMedium, severityFor(cfg, "square_footage", 1000.0, 2000.0))
	})

	t.Run("non-critical numeric with small drift is low", func(t *testing.T) {
		assert.Equal(t, domain.SeverityLow, severityFor(cfg, "square_footage", 1000.0, 1010.0))
	})

	t.Run("critical string mismatch is high", func(t *testing.T) {
		assert.Equal(t, domain.SeverityHigh, severityFor(cfg, "policy_number", "POL-1", "POL-2"))
	})

	t.Run("critical string formatting drift is medium", func(t *testing.T) {
		assert.Equal(t, domain.SeverityMedium, severityFor(cfg, "policy_number", "pol-1 ", "POL-1"))
	})

	t.Run("non-critical string formatting drift is low", func(t *testing.T) {
		assert.Equal(t, domain.SeverityLow, severityFor(cfg, "broker_name", "Jane Doe", "jane doe"))
	})

	t.Run("non-critical string mismatch is medium", func(t *testing.T) {
		assert.Equal(t, domain.SeverityMedium, severityFor(cfg, "broker_name", "Jane", "Joan"))
	})

	t.Run("wildcard pattern marks critical fields", func(t *testing.T) {
		cfg := cfg
		cfg.CriticalFields = []string{"locations.*.address"}
		assert.Equal(t, domain.SeverityHigh,
			severityFor(cfg, "locations.0.address", "1 Main St", "2 Main St"))
	})
}

func TestRelativeDiff(t *testing.T) {
	assert.Equal(t, 0.0, relativeDiff(0, 0))
	assert.Equal(t, 0.0, relativeDiff(5, 5))
	assert.InDelta(t, 0.1667, relativeDiff(5000, 6000), 0.001)
	assert.Equal(t, 1.0, relativeDiff(0, 100))
}
