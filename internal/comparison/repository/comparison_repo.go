package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
	"github.com/redis/go-redis/v9"
)

const (
	comparisonKeyPrefix = "cmp:result:" // Comparison data: cmp:result:{comparison_id}
	comparisonIndexKey  = "cmp:index"   // Set of all stored comparison IDs
)

// ComparisonRepository stores comparison results in Redis so a
// resolution batch can reference them by id. Results expire after the
// configured retention window.
type ComparisonRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewComparisonRepository creates a new ComparisonRepository
func NewComparisonRepository(client *redis.Client, ttl time.Duration) *ComparisonRepository {
	return &ComparisonRepository{client: client, ttl: ttl}
}

// Save stores a comparison and registers it in the index.
func (r *ComparisonRepository) Save(ctx context.Context, cmp *domain.Comparison) error {
	data, err := json.Marshal(cmp)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(cmp.ID), data, r.ttl)
	pipe.SAdd(ctx, comparisonIndexKey, cmp.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save comparison: %w", err)
	}
	return nil
}

// Get retrieves a comparison by id.
func (r *ComparisonRepository) Get(ctx context.Context, id string) (*domain.Comparison, error) {
	data, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrComparisonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	var cmp domain.Comparison
	if err := json.Unmarshal([]byte(data), &cmp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison: %w", err)
	}
	return &cmp, nil
}

// Delete removes a comparison and its index entry.
func (r *ComparisonRepository) Delete(ctx context.Context, id string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(id))
	pipe.SRem(ctx, comparisonIndexKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	return nil
}

// SweepExpired drops index entries whose result key has already
// expired. Returns the number of entries removed.
func (r *ComparisonRepository) SweepExpired(ctx context.Context) (int, error) {
	ids, err := r.client.SMembers(ctx, comparisonIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read comparison index: %w", err)
	}

	removed := 0
	for _, id := range ids {
		exists, err := r.client.Exists(ctx, r.key(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to check comparison %s: %w", id, err)
		}
		if exists == 0 {
			if err := r.client.SRem(ctx, comparisonIndexKey, id).Err(); err != nil {
				return removed, fmt.Errorf("failed to unindex comparison %s: %w", id, err)
			}
			removed++
		}
	}
	return removed, nil
}

func (r *ComparisonRepository) key(id string) string {
	return comparisonKeyPrefix + id
}
