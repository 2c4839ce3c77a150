package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix       = "intake:doc:"    // Document data: intake:doc:{document_id}
	folderDocSetPrefix = "intake:folder:" // Set of document IDs per folder: intake:folder:{folder_id}
	docIndexKey        = "intake:docs"    // Set of all document IDs
)

// DocumentRepository stores intake documents in Redis. Documents are
// workflow state, not durable records: once extraction commits version 1
// the submission lives in Postgres, and the intake entry ages out.
type DocumentRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(client *redis.Client, ttl time.Duration) *DocumentRepository {
	return &DocumentRepository{client: client, ttl: ttl}
}

// Save writes the document and refreshes its folder index.
func (r *DocumentRepository) Save(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.docKey(doc.ID), data, r.ttl)
	pipe.SAdd(ctx, docIndexKey, doc.ID)
	if doc.FolderID != "" {
		folderKey := r.folderKey(doc.FolderID)
		pipe.SAdd(ctx, folderKey, doc.ID)
		pipe.Expire(ctx, folderKey, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Get retrieves a document by ID.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	data, err := r.client.Get(ctx, r.docKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// ListByFolder returns the document IDs registered under a folder.
func (r *DocumentRepository) ListByFolder(ctx context.Context, folderID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.folderKey(folderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list folder documents: %w", err)
	}
	return ids, nil
}

// Delete removes a document and its index entries.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.docKey(id))
	pipe.SRem(ctx, docIndexKey, id)
	if doc.FolderID != "" {
		pipe.SRem(ctx, r.folderKey(doc.FolderID), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// SweepExpired removes index entries whose document key has aged out.
// Returns the number of dangling IDs removed.
func (r *DocumentRepository) SweepExpired(ctx context.Context) (int, error) {
	ids, err := r.client.SMembers(ctx, docIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read document index: %w", err)
	}

	removed := 0
	for _, id := range ids {
		exists, err := r.client.Exists(ctx, r.docKey(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to check document %s: %w", id, err)
		}
		if exists == 0 {
			if err := r.client.SRem(ctx, docIndexKey, id).Err(); err != nil {
				return removed, fmt.Errorf("failed to unindex document %s: %w", id, err)
			}
			removed++
		}
	}
	return removed, nil
}

func (r *DocumentRepository) docKey(id string) string {
	return docKeyPrefix + id
}

func (r *DocumentRepository) folderKey(folderID string) string {
	return folderDocSetPrefix + folderID
}
