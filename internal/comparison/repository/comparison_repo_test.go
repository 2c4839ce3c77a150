package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
)

func setupComparisonRepo(t *testing.T) (*ComparisonRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewComparisonRepository(client, time.Hour), mr
}

func sampleComparison(id string) *domain.Comparison {
	return &domain.Comparison{
		ID:           id,
		SubmissionID: "sub-1",
		SourceALabel: "email",
		SourceBLabel: "portal",
		SnapshotA:    map[string]any{"premium": 5000.0},
		SnapshotB:    map[string]any{"premium": 6000.0},
		Conflicts: []domain.Conflict{{
			Field:    "premium",
			ValueA:   5000.0,
			ValueB:   6000.0,
			SourceA:  "email",
			SourceB:  "portal",
			Severity: domain.SeverityMedium,
		}},
		Matching: []domain.MatchingField{},
		OnlyInA:  []domain.SourceField{},
		OnlyInB:  []domain.SourceField{},
		Summary:  domain.Summary{Conflicts: 1, TotalFields: 1},
	}
}

func TestComparisonRepository_SaveAndGet(t *testing.T) {
	repo, _ := setupComparisonRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleComparison("cmp-1")))

	got, err := repo.Get(ctx, "cmp-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.SubmissionID)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, domain.SeverityMedium, got.Conflicts[0].Severity)
	assert.Equal(t, 6000.0, got.SnapshotB["premium"])

	t.Run("missing comparison returns not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrComparisonNotFound)
	})
}

func TestComparisonRepository_Delete(t *testing.T) {
	repo, _ := setupComparisonRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleComparison("cmp-1")))
	require.NoError(t, repo.Delete(ctx, "cmp-1"))

	_, err := repo.Get(ctx, "cmp-1")
	assert.ErrorIs(t, err, domain.ErrComparisonNotFound)
}

func TestComparisonRepository_SweepExpired(t *testing.T) {
	repo, mr := setupComparisonRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleComparison("cmp-1")))
	require.NoError(t, repo.Save(ctx, sampleComparison("cmp-2")))

	mr.FastForward(2 * time.Hour)

	removed, err := repo.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = repo.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
