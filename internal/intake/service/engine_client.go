package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
)

const (
	engineDefaultTimeout = 30 * time.Second
	engineExtractTimeout = 120 * time.Second // OCR-heavy documents are slow
)

// EngineClient talks to the external classification/extraction engine.
// It implements Uploader, Classifier, and Extractor so the state
// machine only ever sees the collaborator interfaces.
type EngineClient struct {
	baseURL       string
	defaultClient *http.Client
	extractClient *http.Client
}

// NewEngineClient creates a new EngineClient
func NewEngineClient(baseURL string) *EngineClient {
	return &EngineClient{
		baseURL: baseURL,
		defaultClient: &http.Client{
			Timeout: engineDefaultTimeout,
		},
		extractClient: &http.Client{
			Timeout: engineExtractTimeout,
		},
	}
}

// Upload registers the file reference with the engine's file store.
func (c *EngineClient) Upload(ctx context.Context, fileRef string, sizeBytes int64) error {
	body, _ := json.Marshal(map[string]any{
		"file_ref":   fileRef,
		"size_bytes": sizeBytes,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.defaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("engine upload returned status %d", resp.StatusCode)
	}
	return nil
}

// Classify asks the engine for the document type.
func (c *EngineClient) Classify(ctx context.Context, fileRef string) (*ClassifierResult, error) {
	body, _ := json.Marshal(map[string]any{"file_ref": fileRef})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.defaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("engine classify returned status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body))
	}

	var out struct {
		DocumentType string             `json:"document_type"`
		Confidence   float64            `json:"confidence"`
		Indicators   []domain.Indicator `json:"indicators"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}

	return &ClassifierResult{
		DocumentType: out.DocumentType,
		Confidence:   out.Confidence,
		Indicators:   out.Indicators,
	}, nil
}

// Extract asks the engine for structured field data.
func (c *EngineClient) Extract(ctx context.Context, fileRef, documentType string) (*ExtractionResult, error) {
	body, _ := json.Marshal(map[string]any{
		"file_ref":      fileRef,
		"document_type": documentType,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.extractClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("engine extract returned status %d: %s", resp.StatusCode, readBodyPrefix(resp.Body))
	}

	var out struct {
		Data            map[string]any     `json:"data"`
		FieldConfidence map[string]float64 `json:"field_confidence"`
		Warnings        []string           `json:"warnings"`
		Errors          []string           `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}

	return &ExtractionResult{
		Data:            out.Data,
		FieldConfidence: out.FieldConfidence,
		Warnings:        out.Warnings,
		Errors:          out.Errors,
	}, nil
}

func readBodyPrefix(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return string(b)
}
