package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
	"github.com/brokerdesk/submission-backend/internal/comparison/repository"
	"github.com/brokerdesk/submission-backend/internal/fieldpath"
	subdomain "github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/google/uuid"
)

// VersionStore is the slice of the submission service the resolution
// engine needs: current state, version 1 lookup, and commit.
type VersionStore interface {
	Get(ctx context.Context, id string) (*subdomain.Submission, error)
	GetVersionByNumber(ctx context.Context, submissionID string, number int) (*subdomain.Version, error)
	Commit(ctx context.Context, req subdomain.CommitRequest) (*subdomain.Version, error)
}

// ComparisonService runs the comparator, stores results, and applies
// operator resolutions through the version store.
type ComparisonService struct {
	cfg      Config
	repo     *repository.ComparisonRepository
	versions VersionStore
}

// NewComparisonService creates a new ComparisonService
func NewComparisonService(cfg Config, repo *repository.ComparisonRepository, versions VersionStore) *ComparisonService {
	return &ComparisonService{cfg: cfg, repo: repo, versions: versions}
}

// CompareSnapshots compares two snapshots for a submission and stores
// the result so its conflicts can be resolved by id later.
func (s *ComparisonService) CompareSnapshots(
	ctx context.Context,
	submissionID string,
	snapshotA, snapshotB map[string]any,
	labelA, labelB string,
) (*domain.Comparison, error) {
	cmp := Compare(s.cfg, snapshotA, snapshotB, labelA, labelB)
	cmp.ID = uuid.New().String()
	cmp.SubmissionID = submissionID
	cmp.ComparedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, cmp); err != nil {
		return nil, err
	}
	return cmp, nil
}

// CompareWithOriginal compares the submission's current snapshot
// against its version 1 extraction result.
func (s *ComparisonService) CompareWithOriginal(ctx context.Context, submissionID string) (*domain.Comparison, error) {
	sub, err := s.versions.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	original, err := s.versions.GetVersionByNumber(ctx, submissionID, 1)
	if err != nil {
		return nil, err
	}

	return s.CompareSnapshots(ctx, submissionID,
		original.Data, sub.Data,
		"original_extraction", "current")
}

// Get retrieves a stored comparison.
func (s *ComparisonService) Get(ctx context.Context, id string) (*domain.Comparison, error) {
	return s.repo.Get(ctx, id)
}

// ResolutionResult is what a resolution batch produced.
type ResolutionResult struct {
	ComparisonID string                 `json:"comparison_id"`
	Version      *subdomain.Version     `json:"version"`
	Resolved     []domain.ResolvedField `json:"resolved"`
	Unresolved   []string               `json:"unresolved"`
}

// Resolve applies a batch of operator decisions to a stored comparison.
// Every resolution must name a conflicting field, at most once. The new
// snapshot starts from the default source; resolved paths take the
// chosen side's value, unresolved conflicts keep the default source's
// value. The merged snapshot is committed as an update; partial
// resolution never blocks the commit.
func (s *ComparisonService) Resolve(
	ctx context.Context,
	comparisonID string,
	resolutions []domain.Resolution,
	actor string,
) (*ResolutionResult, error) {
	cmp, err := s.repo.Get(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	if cmp.SubmissionID == "" {
		return nil, domain.ErrComparisonNotResolvable
	}

	seen := make(map[string]struct{}, len(resolutions))
	for _, res := range resolutions {
		if res.Action != domain.ActionUseA && res.Action != domain.ActionUseB {
			return nil, fmt.Errorf("%w: %q for field %q", domain.ErrInvalidResolutionAction, res.Action, res.Field)
		}
		if _, ok := cmp.Conflict(res.Field); !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownConflictField, res.Field)
		}
		if _, dup := seen[res.Field]; dup {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateResolution, res.Field)
		}
		seen[res.Field] = struct{}{}
	}

	base := cmp.SnapshotB
	if s.cfg.DefaultSource == "a" {
		base = cmp.SnapshotA
	}
	merged := fieldpath.Clone(base)

	resolved := make([]domain.ResolvedField, 0, len(resolutions))
	for _, res := range resolutions {
		conflict, _ := cmp.Conflict(res.Field)

		value := conflict.ValueB
		source := conflict.SourceB
		if res.Action == domain.ActionUseA {
			value = conflict.ValueA
			source = conflict.SourceA
		}

		fieldpath.Set(merged, res.Field, value)
		resolved = append(resolved, domain.ResolvedField{
			Field:     res.Field,
			Action:    res.Action,
			Source:    source,
			Value:     value,
			Reasoning: res.Reasoning,
		})
	}

	unresolved := make([]string, 0)
	for _, c := range cmp.Conflicts {
		if _, ok := seen[c.Field]; !ok {
			unresolved = append(unresolved, c.Field)
		}
	}
	sort.Strings(unresolved)

	version, err := s.versions.Commit(ctx, subdomain.CommitRequest{
		SubmissionID: cmp.SubmissionID,
		Data:         merged,
		Action:       subdomain.ActionUpdate,
		Actor:        actor,
		Notes:        resolutionNotes(resolved, len(unresolved)),
	})
	if err != nil {
		return nil, err
	}

	return &ResolutionResult{
		ComparisonID: cmp.ID,
		Version:      version,
		Resolved:     resolved,
		Unresolved:   unresolved,
	}, nil
}

func resolutionNotes(resolved []domain.ResolvedField, unresolvedCount int) string {
	if len(resolved) == 0 {
		return fmt.Sprintf("Resolved 0 conflicts (%d deferred)", unresolvedCount)
	}

	parts := make([]string, 0, len(resolved))
	for _, r := range resolved {
		parts = append(parts, fmt.Sprintf("%s<-%s", r.Field, r.Source))
	}

	notes := fmt.Sprintf("Resolved %d conflict(s): %s", len(resolved), strings.Join(parts, ", "))
	if unresolvedCount > 0 {
		notes += fmt.Sprintf(" (%d deferred)", unresolvedCount)
	}
	return notes
}
