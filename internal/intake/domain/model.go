package domain

import "time"

// Intake states. A document moves strictly forward through the happy
// path; error is reachable from any non-terminal state and is retryable
// by re-invoking the step that failed.
const (
	StatePending     = "pending"
	StateUploading   = "uploading"
	StateUploaded    = "uploaded"
	StateClassifying = "classifying"
	StateClassified  = "classified"
	StateExtracting  = "extracting"
	StateExtracted   = "extracted"
	StateError       = "error"
)

// Error reasons recorded when a document enters the error state.
const (
	ReasonUploadFailed          = "upload_failed"
	ReasonClassificationFailed  = "classification_failed"
	ReasonClassificationInvalid = "classification_invalid"
	ReasonExtractionFailed      = "extraction_failed"
)

// Indicator is one classification signal found in the document.
type Indicator struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Classification is the stored result of the classifier collaborator.
type Classification struct {
	DocumentType string      `json:"document_type"`
	Confidence   float64     `json:"confidence"`
	Indicators   []Indicator `json:"indicators,omitempty"`
}

// Document is one uploaded file moving through intake. It is the single
// source of truth for workflow state: handlers and batch jobs read and
// transition it here instead of mirroring state elsewhere.
type Document struct {
	ID           string          `json:"document_id"`
	FolderID     string          `json:"folder_id,omitempty"`
	Filename     string          `json:"filename"`
	MediaType    string          `json:"media_type,omitempty"`
	SizeBytes    int64           `json:"size_bytes"`
	FileRef      string          `json:"file_ref"`
	State        string          `json:"state"`
	FailedState  string          `json:"failed_state,omitempty"` // state that was active when the error hit
	ErrorReason  string          `json:"error_reason,omitempty"`
	ErrorDetail  string          `json:"error_detail,omitempty"`
	Class        *Classification `json:"classification,omitempty"`
	SubmissionID string          `json:"submission_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Terminal reports whether the document reached an end state.
func (d *Document) Terminal() bool {
	return d.State == StateExtracted || d.State == StateError
}
