package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/google/uuid"
)

// SubmissionRepository handles PostgreSQL operations for submissions,
// versions, and the audit trail.
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission shell with no committed versions yet.
// The first CommitVersion call (expected version 0) writes version 1.
func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}

	query := `
		INSERT INTO submissions (id, folder_id, document_id, status, current_version, data, field_confidence)
		VALUES ($1, $2, $3, $4, 0, '{}'::jsonb, $5)
		RETURNING created_at, updated_at
	`

	confidenceJSON, err := json.Marshal(sub.FieldConfidence)
	if err != nil {
		confidenceJSON = []byte("{}")
	}

	var folderID, documentID sql.NullString
	if sub.FolderID != "" {
		folderID = sql.NullString{String: sub.FolderID, Valid: true}
	}
	if sub.DocumentID != "" {
		documentID = sql.NullString{String: sub.DocumentID, Valid: true}
	}

	err = r.db.QueryRowContext(ctx, query,
		sub.ID, folderID, documentID, sub.Status, confidenceJSON,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	sub.CurrentVersion = 0
	if sub.Data == nil {
		sub.Data = map[string]any{}
	}

	return nil
}

// Get retrieves a submission with its current snapshot.
func (r *SubmissionRepository) Get(ctx context.Context, id string) (*domain.Submission, error) {
	query := `
		SELECT id, folder_id, document_id, status, current_version, data, field_confidence, created_at, updated_at
		FROM submissions
		WHERE id = $1
	`

	var sub domain.Submission
	var folderID, documentID sql.NullString
	var dataJSON, confidenceJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&folderID,
		&documentID,
		&sub.Status,
		&sub.CurrentVersion,
		&dataJSON,
		&confidenceJSON,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	sub.FolderID = folderID.String
	sub.DocumentID = documentID.String

	if err := json.Unmarshal(dataJSON, &sub.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submission data: %w", err)
	}
	if len(confidenceJSON) > 0 {
		if err := json.Unmarshal(confidenceJSON, &sub.FieldConfidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field confidence: %w", err)
		}
	}

	return &sub, nil
}

// CommitVersion appends a version and its audit entry and advances the
// submission pointer, all in one transaction. The submission row is only
// updated when its current_version still equals expectedVersion; a lost
// race surfaces as ErrConcurrentModification and nothing is written.
func (r *SubmissionRepository) CommitVersion(
	ctx context.Context,
	version *domain.Version,
	audit *domain.AuditEntry,
	status string,
	expectedVersion int,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback()

	dataJSON, err := json.Marshal(version.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	updateQuery := `
		UPDATE submissions
		SET data = $1, status = $2, current_version = $3, updated_at = NOW()
		WHERE id = $4 AND current_version = $5
	`
	res, err := tx.ExecContext(ctx, updateQuery,
		dataJSON, status, version.VersionNumber, version.SubmissionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update submission pointer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the submission vanished or another commit won the race.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`,
			version.SubmissionID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check submission existence: %w", err)
		}
		if !exists {
			return domain.ErrSubmissionNotFound
		}
		return domain.ErrConcurrentModification
	}

	changesJSON, err := json.Marshal(version.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	versionQuery := `
		INSERT INTO submission_versions (id, submission_id, version_number, action, actor, notes, data, changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, versionQuery,
		version.ID,
		version.SubmissionID,
		version.VersionNumber,
		version.Action,
		version.Actor,
		version.Notes,
		dataJSON,
		changesJSON,
	).Scan(&version.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}

	auditQuery := `
		INSERT INTO submission_audit (id, submission_id, version_id, version_number, action, actor, notes, added_count, modified_count, deleted_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err = tx.QueryRowContext(ctx, auditQuery,
		audit.ID,
		audit.SubmissionID,
		audit.VersionID,
		audit.VersionNumber,
		audit.Action,
		audit.Actor,
		audit.Notes,
		audit.AddedCount,
		audit.ModifiedCount,
		audit.DeletedCount,
	).Scan(&audit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version transaction: %w", err)
	}

	return nil
}

// GetVersion retrieves one version including its materialized snapshot.
func (r *SubmissionRepository) GetVersion(ctx context.Context, submissionID, versionID string) (*domain.Version, error) {
	query := `
		SELECT id, submission_id, version_number, action, actor, notes, data, changes, created_at
		FROM submission_versions
		WHERE submission_id = $1 AND id = $2
	`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, submissionID, versionID))
}

// GetVersionByNumber retrieves one version by its sequence number.
func (r *SubmissionRepository) GetVersionByNumber(ctx context.Context, submissionID string, number int) (*domain.Version, error) {
	query := `
		SELECT id, submission_id, version_number, action, actor, notes, data, changes, created_at
		FROM submission_versions
		WHERE submission_id = $1 AND version_number = $2
	`
	return r.scanVersion(r.db.QueryRowContext(ctx, query, submissionID, number))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SubmissionRepository) scanVersion(row rowScanner) (*domain.Version, error) {
	var v domain.Version
	var notes sql.NullString
	var dataJSON, changesJSON []byte

	err := row.Scan(
		&v.ID,
		&v.SubmissionID,
		&v.VersionNumber,
		&v.Action,
		&v.Actor,
		&notes,
		&dataJSON,
		&changesJSON,
		&v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	v.Notes = notes.String
	if err := json.Unmarshal(dataJSON, &v.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version data: %w", err)
	}
	if err := json.Unmarshal(changesJSON, &v.Changes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version changes: %w", err)
	}

	return &v, nil
}

// ListVersions returns version summaries (diff included, snapshot omitted)
// ordered by version_number ascending.
func (r *SubmissionRepository) ListVersions(ctx context.Context, submissionID string) ([]domain.Version, error) {
	query := `
		SELECT id, submission_id, version_number, action, actor, notes, changes, created_at
		FROM submission_versions
		WHERE submission_id = $1
		ORDER BY version_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Version, 0, 8)
	for rows.Next() {
		var v domain.Version
		var notes sql.NullString
		var changesJSON []byte
		if err := rows.Scan(
			&v.ID, &v.SubmissionID, &v.VersionNumber, &v.Action,
			&v.Actor, &notes, &changesJSON, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan version row: %w", err)
		}
		v.Notes = notes.String
		if err := json.Unmarshal(changesJSON, &v.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal version changes: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListAuditTrail returns audit entries ordered by version_number ascending.
func (r *SubmissionRepository) ListAuditTrail(ctx context.Context, submissionID string) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, submission_id, version_id, version_number, action, actor, notes, added_count, modified_count, deleted_count, created_at
		FROM submission_audit
		WHERE submission_id = $1
		ORDER BY version_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit trail: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AuditEntry, 0, 8)
	for rows.Next() {
		var e domain.AuditEntry
		var notes sql.NullString
		if err := rows.Scan(
			&e.ID, &e.SubmissionID, &e.VersionID, &e.VersionNumber,
			&e.Action, &e.Actor, &notes,
			&e.AddedCount, &e.ModifiedCount, &e.DeletedCount,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		e.Notes = notes.String
		out = append(out, e)
	}
	return out, rows.Err()
}
