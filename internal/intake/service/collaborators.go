package service

import (
	"context"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
)

// Uploader is the file transport collaborator. The core never touches
// document bytes; it hands the reference over and records the outcome.
type Uploader interface {
	Upload(ctx context.Context, fileRef string, sizeBytes int64) error
}

// ClassifierResult is the classifier collaborator's contract. Confidence
// must be in [0,1]; anything else is a contract violation.
type ClassifierResult struct {
	DocumentType string
	Confidence   float64
	Indicators   []domain.Indicator
}

// Classifier determines the document type from content analysis.
type Classifier interface {
	Classify(ctx context.Context, fileRef string) (*ClassifierResult, error)
}

// ExtractionResult carries the structured data a document yielded.
// Missing fields are simply absent from Data, not an error.
type ExtractionResult struct {
	Data            map[string]any
	FieldConfidence map[string]float64
	Warnings        []string
	Errors          []string
}

// Extractor pulls structured field data out of a classified document.
type Extractor interface {
	Extract(ctx context.Context, fileRef, documentType string) (*ExtractionResult, error)
}
