package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
)

func setupDocumentRepo(t *testing.T) (*DocumentRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewDocumentRepository(client, time.Hour), mr
}

func TestDocumentRepository_SaveAndGet(t *testing.T) {
	repo, _ := setupDocumentRepo(t)
	ctx := context.Background()

	doc := &domain.Document{
		ID:        "doc-1",
		FolderID:  "folder-1",
		Filename:  "acord.pdf",
		MediaType: "application/pdf",
		SizeBytes: 512,
		FileRef:   "uploads/doc-1_acord.pdf",
		State:     domain.StatePending,
	}

	require.NoError(t, repo.Save(ctx, doc))
	assert.False(t, doc.CreatedAt.IsZero())
	assert.False(t, doc.UpdatedAt.IsZero())

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.State)
	assert.Equal(t, "acord.pdf", got.Filename)

	t.Run("missing document returns not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestDocumentRepository_ListByFolder(t *testing.T) {
	repo, _ := setupDocumentRepo(t)
	ctx := context.Background()

	for _, id := range []string{"doc-1", "doc-2"} {
		require.NoError(t, repo.Save(ctx, &domain.Document{
			ID: id, FolderID: "folder-1", Filename: id + ".pdf", State: domain.StatePending,
		}))
	}
	require.NoError(t, repo.Save(ctx, &domain.Document{
		ID: "doc-3", FolderID: "folder-2", Filename: "other.pdf", State: domain.StatePending,
	}))

	ids, err := repo.ListByFolder(ctx, "folder-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, ids)
}

func TestDocumentRepository_Delete(t *testing.T) {
	repo, _ := setupDocumentRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Document{
		ID: "doc-1", FolderID: "folder-1", Filename: "a.pdf", State: domain.StatePending,
	}))
	require.NoError(t, repo.Delete(ctx, "doc-1"))

	_, err := repo.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := repo.ListByFolder(ctx, "folder-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDocumentRepository_SweepExpired(t *testing.T) {
	repo, mr := setupDocumentRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &domain.Document{
		ID: "doc-live", Filename: "a.pdf", State: domain.StatePending,
	}))
	require.NoError(t, repo.Save(ctx, &domain.Document{
		ID: "doc-stale", Filename: "b.pdf", State: domain.StatePending,
	}))

	// Age out one document key; its index entry is now dangling.
	mr.FastForward(2 * time.Hour)
	require.NoError(t, mr.Set("intake:doc:doc-live", `{"id":"doc-live","state":"pending"}`))

	removed, err := repo.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
