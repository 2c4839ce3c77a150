package service

import (
	"context"
	"fmt"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
	"github.com/brokerdesk/submission-backend/internal/intake/repository"
	subdomain "github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/google/uuid"
)

// SubmissionCreator is the slice of the version store the intake
// machine needs: committing an extraction result as version 1.
type SubmissionCreator interface {
	CreateFromExtraction(
		ctx context.Context,
		folderID, documentID string,
		data map[string]any,
		confidence map[string]float64,
		actor string,
	) (*subdomain.Submission, *subdomain.Version, error)
}

// IntakeService drives one document through upload, classification, and
// extraction. The stored Document is the single source of truth for
// workflow state; every transition is persisted before and after the
// external call so a failure is always inspectable.
type IntakeService struct {
	repo        *repository.DocumentRepository
	uploader    Uploader
	classifier  Classifier
	extractor   Extractor
	submissions SubmissionCreator
	maxUpload   int64
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(
	repo *repository.DocumentRepository,
	uploader Uploader,
	classifier Classifier,
	extractor Extractor,
	submissions SubmissionCreator,
	maxUploadBytes int64,
) *IntakeService {
	return &IntakeService{
		repo:        repo,
		uploader:    uploader,
		classifier:  classifier,
		extractor:   extractor,
		submissions: submissions,
		maxUpload:   maxUploadBytes,
	}
}

// SubmitRequest describes one uploaded file entering intake.
type SubmitRequest struct {
	FolderID  string
	Filename  string
	MediaType string
	SizeBytes int64
	FileRef   string
}

// Submit validates the file, records the document, and hands the
// reference to the transport collaborator. A transport failure leaves
// the document in error/upload_failed with no snapshot written.
func (s *IntakeService) Submit(ctx context.Context, req SubmitRequest) (*domain.Document, error) {
	logger := NewLogger(ctx)

	if req.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrFileEmpty)
	}
	if req.SizeBytes <= 0 {
		return nil, domain.ErrFileEmpty
	}
	if req.SizeBytes > s.maxUpload {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, req.SizeBytes, s.maxUpload)
	}

	doc := &domain.Document{
		ID:        uuid.New().String(),
		FolderID:  req.FolderID,
		Filename:  req.Filename,
		MediaType: req.MediaType,
		SizeBytes: req.SizeBytes,
		FileRef:   req.FileRef,
		State:     domain.StatePending,
	}
	if doc.FileRef == "" {
		doc.FileRef = fmt.Sprintf("uploads/%s_%s", doc.ID, doc.Filename)
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	doc.State = domain.StateUploading
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.uploader.Upload(ctx, doc.FileRef, doc.SizeBytes); err != nil {
		logger.LogError("submit", err)
		s.fail(ctx, doc, domain.StateUploading, domain.ReasonUploadFailed, err)
		return doc, fmt.Errorf("upload document %s: %w", doc.ID, err)
	}

	doc.State = domain.StateUploaded
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	logger.LogInfof("submit", "document_id=%s filename=%s size=%d", doc.ID, doc.Filename, doc.SizeBytes)
	return doc, nil
}

// Classify invokes the classifier collaborator. Allowed from uploaded,
// or from error when classification was the step that failed. A
// cancelled call leaves the document back in uploaded, its
// last-confirmed state.
func (s *IntakeService) Classify(ctx context.Context, documentID string) (*domain.Document, error) {
	logger := NewLogger(ctx)

	doc, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !canRetryFrom(doc, domain.StateUploaded, domain.StateClassifying) {
		return nil, fmt.Errorf("%w: classify from %q", domain.ErrInvalidState, doc.State)
	}

	doc.State = domain.StateClassifying
	clearError(doc)
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	result, err := s.classifier.Classify(ctx, doc.FileRef)
	if err != nil {
		if ctx.Err() != nil {
			// Caller-side cancellation: roll back to the last-confirmed
			// state instead of recording a collaborator failure.
			doc.State = domain.StateUploaded
			_ = s.repo.Save(context.WithoutCancel(ctx), doc)
			return doc, fmt.Errorf("classify document %s: %w", doc.ID, err)
		}
		logger.LogError("classify", err)
		s.fail(ctx, doc, domain.StateClassifying, domain.ReasonClassificationFailed, err)
		return doc, fmt.Errorf("classify document %s: %w", doc.ID, err)
	}

	if result.Confidence < 0 || result.Confidence > 1 {
		err := fmt.Errorf("%w: %g", domain.ErrClassifierContract, result.Confidence)
		logger.LogError("classify", err)
		s.fail(ctx, doc, domain.StateClassifying, domain.ReasonClassificationInvalid, err)
		return doc, err
	}

	doc.Class = &domain.Classification{
		DocumentType: result.DocumentType,
		Confidence:   result.Confidence,
		Indicators:   result.Indicators,
	}
	doc.State = domain.StateClassified
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	logger.LogInfof("classify", "document_id=%s type=%s confidence=%.2f",
		doc.ID, result.DocumentType, result.Confidence)
	return doc, nil
}

// Extract invokes the extractor and, on success, commits the snapshot
// as the submission's version 1. Allowed from classified, or from error
// when extraction was the step that failed.
func (s *IntakeService) Extract(ctx context.Context, documentID, actor string) (*domain.Document, error) {
	logger := NewLogger(ctx)

	doc, err := s.repo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !canRetryFrom(doc, domain.StateClassified, domain.StateExtracting) {
		return nil, fmt.Errorf("%w: extract from %q", domain.ErrInvalidState, doc.State)
	}
	if doc.Class == nil {
		return nil, fmt.Errorf("%w: document has no classification", domain.ErrInvalidState)
	}

	doc.State = domain.StateExtracting
	clearError(doc)
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	result, err := s.extractor.Extract(ctx, doc.FileRef, doc.Class.DocumentType)
	if err != nil {
		if ctx.Err() != nil {
			doc.State = domain.StateClassified
			_ = s.repo.Save(context.WithoutCancel(ctx), doc)
			return doc, fmt.Errorf("extract document %s: %w", doc.ID, err)
		}
		logger.LogError("extract", err)
		s.fail(ctx, doc, domain.StateExtracting, domain.ReasonExtractionFailed, err)
		return doc, fmt.Errorf("extract document %s: %w", doc.ID, err)
	}

	sub, _, err := s.submissions.CreateFromExtraction(
		ctx, doc.FolderID, doc.ID, result.Data, result.FieldConfidence, actor)
	if err != nil {
		logger.LogError("extract", err)
		s.fail(ctx, doc, domain.StateExtracting, domain.ReasonExtractionFailed, err)
		return doc, fmt.Errorf("commit extraction for document %s: %w", doc.ID, err)
	}

	doc.SubmissionID = sub.ID
	doc.State = domain.StateExtracted
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	logger.LogInfof("extract", "document_id=%s submission_id=%s fields=%d warnings=%d",
		doc.ID, sub.ID, len(result.FieldConfidence), len(result.Warnings))
	return doc, nil
}

// BatchResult reports one document's outcome inside a batch extraction.
type BatchResult struct {
	DocumentID   string `json:"document_id"`
	SubmissionID string `json:"submission_id,omitempty"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
}

// BatchExtract runs Extract over many documents. Failures are isolated:
// one document's error never aborts its siblings.
func (s *IntakeService) BatchExtract(ctx context.Context, documentIDs []string, actor string) []BatchResult {
	results := make([]BatchResult, 0, len(documentIDs))
	for _, id := range documentIDs {
		doc, err := s.Extract(ctx, id, actor)
		r := BatchResult{DocumentID: id}
		if doc != nil {
			r.State = doc.State
			r.SubmissionID = doc.SubmissionID
		}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// Get returns the document's current, inspectable state.
func (s *IntakeService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.repo.Get(ctx, documentID)
}

// ListByFolder returns the document IDs registered under a folder.
func (s *IntakeService) ListByFolder(ctx context.Context, folderID string) ([]string, error) {
	return s.repo.ListByFolder(ctx, folderID)
}

func (s *IntakeService) fail(ctx context.Context, doc *domain.Document, failedState, reason string, cause error) {
	doc.State = domain.StateError
	doc.FailedState = failedState
	doc.ErrorReason = reason
	doc.ErrorDetail = cause.Error()
	if err := s.repo.Save(context.WithoutCancel(ctx), doc); err != nil {
		NewLogger(ctx).LogError("record_failure", err)
	}
}

// canRetryFrom allows a step from its normal predecessor state, or from
// error when that same step was the one that failed.
func canRetryFrom(doc *domain.Document, from, failedStep string) bool {
	if doc.State == from {
		return true
	}
	return doc.State == domain.StateError && doc.FailedState == failedStep
}

func clearError(doc *domain.Document) {
	doc.FailedState = ""
	doc.ErrorReason = ""
	doc.ErrorDetail = ""
}
