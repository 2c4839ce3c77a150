package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
	"github.com/brokerdesk/submission-backend/internal/intake/repository"
	subdomain "github.com/brokerdesk/submission-backend/internal/submissions/domain"
)

type fakeUploader struct {
	err   error
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, fileRef string, sizeBytes int64) error {
	f.calls++
	return f.err
}

type fakeClassifier struct {
	result *ClassifierResult
	err    error
}

func (f *fakeClassifier) Classify(ctx context.Context, fileRef string) (*ClassifierResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeExtractor struct {
	result *ExtractionResult
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, fileRef, documentType string) (*ExtractionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeSubmissions struct {
	err   error
	calls int
}

func (f *fakeSubmissions) CreateFromExtraction(
	ctx context.Context,
	folderID, documentID string,
	data map[string]any,
	confidence map[string]float64,
	actor string,
) (*subdomain.Submission, *subdomain.Version, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.calls++
	sub := &subdomain.Submission{
		ID:         "sub-" + documentID,
		FolderID:   folderID,
		DocumentID: documentID,
		Data:       data,
	}
	return sub, &subdomain.Version{SubmissionID: sub.ID, VersionNumber: 1}, nil
}

type intakeFixture struct {
	svc         *IntakeService
	repo        *repository.DocumentRepository
	uploader    *fakeUploader
	classifier  *fakeClassifier
	extractor   *fakeExtractor
	submissions *fakeSubmissions
}

func setupIntake(t *testing.T) *intakeFixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &intakeFixture{
		repo:     repository.NewDocumentRepository(client, time.Hour),
		uploader: &fakeUploader{},
		classifier: &fakeClassifier{result: &ClassifierResult{
			DocumentType: "acord_126",
			Confidence:   0.92,
		}},
		extractor: &fakeExtractor{result: &ExtractionResult{
			Data:            map[string]any{"policy_number": "POL-1"},
			FieldConfidence: map[string]float64{"policy_number": 0.9},
		}},
		submissions: &fakeSubmissions{},
	}
	f.svc = NewIntakeService(f.repo, f.uploader, f.classifier, f.extractor, f.submissions, 1024)
	return f
}

func submitted(t *testing.T, f *intakeFixture) *domain.Document {
	t.Helper()
	doc, err := f.svc.Submit(context.Background(), SubmitRequest{
		FolderID:  "folder-1",
		Filename:  "acord.pdf",
		MediaType: "application/pdf",
		SizeBytes: 512,
	})
	require.NoError(t, err)
	return doc
}

func TestIntakeService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("moves through uploading to uploaded", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		assert.Equal(t, domain.StateUploaded, doc.State)
		assert.Equal(t, 1, f.uploader.calls)
		assert.NotEmpty(t, doc.FileRef)

		stored, err := f.repo.Get(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateUploaded, stored.State)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		f := setupIntake(t)
		_, err := f.svc.Submit(ctx, SubmitRequest{Filename: "x.pdf", SizeBytes: 0})
		assert.ErrorIs(t, err, domain.ErrFileEmpty)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		f := setupIntake(t)
		_, err := f.svc.Submit(ctx, SubmitRequest{Filename: "x.pdf", SizeBytes: 4096})
		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	})

	t.Run("upload failure lands in error state with step recorded", func(t *testing.T) {
		f := setupIntake(t)
		f.uploader.err = errors.New("connection refused")

		doc, err := f.svc.Submit(ctx, SubmitRequest{Filename: "x.pdf", SizeBytes: 512})
		require.Error(t, err)
		assert.Equal(t, domain.StateError, doc.State)
		assert.Equal(t, domain.StateUploading, doc.FailedState)
		assert.Equal(t, domain.ReasonUploadFailed, doc.ErrorReason)
		assert.Contains(t, doc.ErrorDetail, "connection refused")
	})
}

func TestIntakeService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies an uploaded document", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		doc, err := f.svc.Classify(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateClassified, doc.State)
		require.NotNil(t, doc.Class)
		assert.Equal(t, "acord_126", doc.Class.DocumentType)
		assert.Equal(t, 0.92, doc.Class.Confidence)
	})

	t.Run("rejects classify from pending-equivalent states", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		_, err := f.svc.Classify(ctx, doc.ID)
		require.NoError(t, err)

		// Already classified, classify again is not allowed.
		_, err = f.svc.Classify(ctx, doc.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("classifier failure is retryable", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		f.classifier.err = errors.New("model timeout")
		failed, err := f.svc.Classify(ctx, doc.ID)
		require.Error(t, err)
		assert.Equal(t, domain.StateError, failed.State)
		assert.Equal(t, domain.ReasonClassificationFailed, failed.ErrorReason)

		f.classifier.err = nil
		retried, err := f.svc.Classify(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateClassified, retried.State)
		assert.Empty(t, retried.ErrorReason)
	})

	t.Run("confidence outside unit interval violates the contract", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		f.classifier.result = &ClassifierResult{DocumentType: "acord_126", Confidence: 1.4}
		failed, err := f.svc.Classify(ctx, doc.ID)
		assert.ErrorIs(t, err, domain.ErrClassifierContract)
		assert.Equal(t, domain.StateError, failed.State)
		assert.Equal(t, domain.ReasonClassificationInvalid, failed.ErrorReason)
		assert.Nil(t, failed.Class)
	})

	t.Run("missing document returns not found", func(t *testing.T) {
		f := setupIntake(t)
		_, err := f.svc.Classify(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})
}

func TestIntakeService_Extract(t *testing.T) {
	ctx := context.Background()

	classified := func(t *testing.T, f *intakeFixture) *domain.Document {
		t.Helper()
		doc := submitted(t, f)
		doc, err := f.svc.Classify(ctx, doc.ID)
		require.NoError(t, err)
		return doc
	}

	t.Run("creates the submission and links it back", func(t *testing.T) {
		f := setupIntake(t)
		doc := classified(t, f)

		doc, err := f.svc.Extract(ctx, doc.ID, "underwriter-7")
		require.NoError(t, err)
		assert.Equal(t, domain.StateExtracted, doc.State)
		assert.Equal(t, "sub-"+doc.ID, doc.SubmissionID)
		assert.Equal(t, 1, f.submissions.calls)
	})

	t.Run("rejects extract before classification", func(t *testing.T) {
		f := setupIntake(t)
		doc := submitted(t, f)

		_, err := f.svc.Extract(ctx, doc.ID, "underwriter-7")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("extractor failure is retryable", func(t *testing.T) {
		f := setupIntake(t)
		doc := classified(t, f)

		f.extractor.err = errors.New("ocr failed")
		failed, err := f.svc.Extract(ctx, doc.ID, "underwriter-7")
		require.Error(t, err)
		assert.Equal(t, domain.StateError, failed.State)
		assert.Equal(t, domain.ReasonExtractionFailed, failed.ErrorReason)

		f.extractor.err = nil
		retried, err := f.svc.Extract(ctx, doc.ID, "underwriter-7")
		require.NoError(t, err)
		assert.Equal(t, domain.StateExtracted, retried.State)
	})

	t.Run("version store failure is recorded as extraction failure", func(t *testing.T) {
		f := setupIntake(t)
		doc := classified(t, f)

		f.submissions.err = errors.New("db unavailable")
		failed, err := f.svc.Extract(ctx, doc.ID, "underwriter-7")
		require.Error(t, err)
		assert.Equal(t, domain.StateError, failed.State)
		assert.Empty(t, failed.SubmissionID)
	})
}

func TestIntakeService_BatchExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("isolates failures per document", func(t *testing.T) {
		f := setupIntake(t)

		good := submitted(t, f)
		_, err := f.svc.Classify(ctx, good.ID)
		require.NoError(t, err)

		// Second document never classified, so extraction must fail.
		bad := submitted(t, f)

		results := f.svc.BatchExtract(ctx, []string{good.ID, bad.ID, "missing"}, "underwriter-7")
		require.Len(t, results, 3)

		assert.Equal(t, domain.StateExtracted, results[0].State)
		assert.NotEmpty(t, results[0].SubmissionID)
		assert.Empty(t, results[0].Error)

		assert.NotEmpty(t, results[1].Error)
		assert.Empty(t, results[1].SubmissionID)

		assert.NotEmpty(t, results[2].Error)
	})
}
