package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brokerdesk/submission-backend/internal/intake/domain"
	"github.com/brokerdesk/submission-backend/internal/intake/service"
	"github.com/gin-gonic/gin"
)

type submitReq struct {
	FolderID  string `json:"folder_id"`
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
	FileRef   string `json:"file_ref,omitempty"`
}

// Submit registers an uploaded file and starts the intake workflow.
func (h *Handler) Submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Filename) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	doc, err := h.intake.Submit(c.Request.Context(), service.SubmitRequest{
		FolderID:  req.FolderID,
		Filename:  strings.TrimSpace(req.Filename),
		MediaType: req.MediaType,
		SizeBytes: req.SizeBytes,
		FileRef:   req.FileRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFileEmpty), errors.Is(err, domain.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			// Upload failure: the document exists in error state, return it
			// so the caller can inspect and retry.
			if doc != nil {
				c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "document": doc})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "document": doc})
}

// GetDocument returns the document's current workflow state.
func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.intake.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

// Classify runs the classification step on an uploaded document.
func (h *Handler) Classify(c *gin.Context) {
	doc, err := h.intake.Classify(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.stepError(c, doc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

// Extract runs the extraction step on a classified document and creates
// the submission.
func (h *Handler) Extract(c *gin.Context) {
	doc, err := h.intake.Extract(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		h.stepError(c, doc, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document": doc})
}

type batchExtractReq struct {
	DocumentIDs []string `json:"document_ids"`
}

// BatchExtract runs extraction over several documents; each outcome is
// reported independently.
func (h *Handler) BatchExtract(c *gin.Context) {
	var req batchExtractReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DocumentIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "document_ids is required"})
		return
	}

	results := h.intake.BatchExtract(c.Request.Context(), req.DocumentIDs, actor(c))

	succeeded := 0
	for _, r := range results {
		if r.Error == "" {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// ListFolderDocuments returns the document IDs registered under a folder.
func (h *Handler) ListFolderDocuments(c *gin.Context) {
	ids, err := h.intake.ListByFolder(c.Request.Context(), c.Param("folder_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "document_ids": ids})
}

func (h *Handler) stepError(c *gin.Context, doc *domain.Document, err error) {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "document not found"})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrClassifierContract):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "document": doc})
	default:
		if doc != nil {
			c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "document": doc})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
