package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/brokerdesk/submission-backend/internal/fieldpath"
	"github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/brokerdesk/submission-backend/internal/submissions/repository"
	"github.com/google/uuid"
)

// SubmissionService is the version store: every snapshot mutation flows
// through Commit, which computes the diff and appends an immutable
// version plus its audit entry.
type SubmissionService struct {
	repo *repository.SubmissionRepository
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(repo *repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{repo: repo}
}

// CreateFromExtraction creates a submission and commits the extraction
// snapshot as version 1 (action extract, everything in added).
func (s *SubmissionService) CreateFromExtraction(
	ctx context.Context,
	folderID, documentID string,
	data map[string]any,
	confidence map[string]float64,
	actor string,
) (*domain.Submission, *domain.Version, error) {
	sub := &domain.Submission{
		FolderID:        folderID,
		DocumentID:      documentID,
		Status:          domain.StatusExtracted,
		FieldConfidence: confidence,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, nil, err
	}

	version, err := s.Commit(ctx, domain.CommitRequest{
		SubmissionID: sub.ID,
		Data:         data,
		Action:       domain.ActionExtract,
		Actor:        actor,
		Notes:        "Initial extraction",
	})
	if err != nil {
		return nil, nil, err
	}

	sub.Data = version.Data
	sub.CurrentVersion = version.VersionNumber
	return sub, version, nil
}

// Commit appends a new version for the submission. The diff is computed
// against the current snapshot on the flattened representation, so one
// changed leaf inside a nested object yields one modified entry. The
// underlying write is guarded by an optimistic version check; a lost
// race returns domain.ErrConcurrentModification untouched.
func (s *SubmissionService) Commit(ctx context.Context, req domain.CommitRequest) (*domain.Version, error) {
	if !domain.ValidAction(req.Action) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAction, req.Action)
	}
	if req.Actor == "" {
		req.Actor = "system"
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}

	sub, err := s.repo.Get(ctx, req.SubmissionID)
	if err != nil {
		return nil, err
	}

	changes := ComputeChanges(sub.Data, req.Data)

	version := &domain.Version{
		ID:            uuid.New().String(),
		SubmissionID:  sub.ID,
		VersionNumber: sub.CurrentVersion + 1,
		Action:        req.Action,
		Actor:         req.Actor,
		Notes:         req.Notes,
		Data:          fieldpath.Clone(req.Data),
		Changes:       changes,
	}

	audit := &domain.AuditEntry{
		ID:            uuid.New().String(),
		SubmissionID:  sub.ID,
		VersionID:     version.ID,
		VersionNumber: version.VersionNumber,
		Action:        version.Action,
		Actor:         version.Actor,
		Notes:         version.Notes,
		AddedCount:    len(changes.Added),
		ModifiedCount: len(changes.Modified),
		DeletedCount:  len(changes.Deleted),
	}

	status := statusForAction(req.Action)
	if err := s.repo.CommitVersion(ctx, version, audit, status, sub.CurrentVersion); err != nil {
		return nil, err
	}

	return version, nil
}

// Get retrieves a submission with its current snapshot.
func (s *SubmissionService) Get(ctx context.Context, id string) (*domain.Submission, error) {
	return s.repo.Get(ctx, id)
}

// GetVersion retrieves one version including its snapshot.
func (s *SubmissionService) GetVersion(ctx context.Context, submissionID, versionID string) (*domain.Version, error) {
	return s.repo.GetVersion(ctx, submissionID, versionID)
}

// GetVersionByNumber retrieves one version by sequence number.
func (s *SubmissionService) GetVersionByNumber(ctx context.Context, submissionID string, number int) (*domain.Version, error) {
	return s.repo.GetVersionByNumber(ctx, submissionID, number)
}

// ListVersions returns the submission's versions, ascending, no gaps.
func (s *SubmissionService) ListVersions(ctx context.Context, submissionID string) ([]domain.Version, error) {
	return s.repo.ListVersions(ctx, submissionID)
}

// AuditTrail returns the audit entries, ascending by version number.
func (s *SubmissionService) AuditTrail(ctx context.Context, submissionID string) ([]domain.AuditEntry, error) {
	return s.repo.ListAuditTrail(ctx, submissionID)
}

// Rollback commits the target version's snapshot as a new version. The
// new version's changes are computed against the current snapshot, so
// the trail records what actually changed. Rolling back to the current
// version still writes a version with an empty diff.
func (s *SubmissionService) Rollback(ctx context.Context, submissionID, targetVersionID, actor, notes string) (*domain.Version, error) {
	target, err := s.repo.GetVersion(ctx, submissionID, targetVersionID)
	if err != nil {
		return nil, err
	}

	if notes == "" {
		notes = fmt.Sprintf("Rolled back to version %d", target.VersionNumber)
	}

	return s.Commit(ctx, domain.CommitRequest{
		SubmissionID: submissionID,
		Data:         target.Data,
		Action:       domain.ActionRollback,
		Actor:        actor,
		Notes:        notes,
	})
}

// CompareVersions diffs two stored versions of the same submission.
func (s *SubmissionService) CompareVersions(ctx context.Context, submissionID, fromVersionID, toVersionID string) (*domain.VersionComparison, error) {
	from, err := s.repo.GetVersion(ctx, submissionID, fromVersionID)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.GetVersion(ctx, submissionID, toVersionID)
	if err != nil {
		return nil, err
	}

	return &domain.VersionComparison{
		From:    versionRef(from),
		To:      versionRef(to),
		Changes: ComputeChanges(from.Data, to.Data),
	}, nil
}

func versionRef(v *domain.Version) domain.VersionRef {
	return domain.VersionRef{
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
		Actor:         v.Actor,
		CreatedAt:     v.CreatedAt,
	}
}

// ComputeChanges diffs two snapshots field by field on the flattened
// representation. Output is sorted by field path so identical inputs
// always produce identical diffs.
func ComputeChanges(oldData, newData map[string]any) domain.Changes {
	oldFlat := fieldpath.Flatten(oldData)
	newFlat := fieldpath.Flatten(newData)

	changes := domain.Changes{
		Added:    []domain.FieldChange{},
		Modified: []domain.FieldChange{},
		Deleted:  []domain.FieldChange{},
	}

	for _, path := range sortedKeys(newFlat) {
		newValue := newFlat[path]
		oldValue, ok := oldFlat[path]
		if !ok {
			changes.Added = append(changes.Added, domain.FieldChange{
				Field:    path,
				NewValue: newValue,
			})
			continue
		}
		if !valuesEqual(oldValue, newValue) {
			changes.Modified = append(changes.Modified, domain.FieldChange{
				Field:    path,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}

	for _, path := range sortedKeys(oldFlat) {
		if _, ok := newFlat[path]; !ok {
			changes.Deleted = append(changes.Deleted, domain.FieldChange{
				Field:    path,
				OldValue: oldFlat[path],
			})
		}
	}

	return changes
}

// LowConfidenceFields is the read-side projection behind confidence-gated
// review: field paths whose extraction confidence is at or below the
// threshold, sorted for stable output.
func LowConfidenceFields(confidence map[string]float64, threshold float64) []domain.FieldConfidenceEntry {
	out := make([]domain.FieldConfidenceEntry, 0, len(confidence))
	for field, score := range confidence {
		if score <= threshold {
			out = append(out, domain.FieldConfidenceEntry{Field: field, Confidence: score})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func statusForAction(action string) string {
	switch action {
	case domain.ActionExtract:
		return domain.StatusExtracted
	case domain.ActionFill:
		return domain.StatusFilled
	default:
		return domain.StatusUpdated
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valuesEqual compares scalar leaves. Numeric values are compared as
// float64 regardless of how they were decoded; slices fall back to
// element-wise comparison.
func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	if as, aok := a.([]any); aok {
		bs, bok := b.([]any)
		if !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], bs[i]) {
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
