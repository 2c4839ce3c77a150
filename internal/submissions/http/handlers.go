package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/brokerdesk/submission-backend/internal/submissions/service"
	"github.com/gin-gonic/gin"
)

// Get returns the submission's current snapshot. Passing ?max_confidence=
// additionally projects the field paths whose extraction confidence is
// at or below the threshold.
func (h *Handler) Get(c *gin.Context) {
	sub, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}

	resp := gin.H{"ok": true, "submission": sub}

	if raw := c.Query("max_confidence"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid max_confidence"})
			return
		}
		resp["low_confidence_fields"] = service.LowConfidenceFields(sub.FieldConfidence, threshold)
	}

	c.JSON(http.StatusOK, resp)
}

type commitReq struct {
	Data   map[string]any `json:"data"`
	Action string         `json:"action,omitempty"`
	Notes  string         `json:"notes,omitempty"`
}

// UpdateData commits a full replacement snapshot as a new version.
func (h *Handler) UpdateData(c *gin.Context) {
	var req commitReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body: data is required"})
		return
	}
	switch req.Action {
	case "":
		req.Action = domain.ActionUpdate
	case domain.ActionUpdate, domain.ActionFill:
	default:
		// extract and rollback versions are written only by their own
		// operations, never through the data endpoint.
		c.JSON(http.StatusBadRequest, gin.H{"ok": false,
			"error": fmt.Sprintf("action %q cannot be committed here", req.Action)})
		return
	}

	version, err := h.submissions.Commit(c.Request.Context(), domain.CommitRequest{
		SubmissionID: c.Param("id"),
		Data:         req.Data,
		Action:       req.Action,
		Actor:        actor(c),
		Notes:        req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submission not found"})
		case errors.Is(err, domain.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, domain.ErrConcurrentModification):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "submission was modified concurrently, reload and retry"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "version": version})
}

// ListVersions returns the submission's version history, ascending.
// Snapshots are omitted; fetch a single version for its data.
func (h *Handler) ListVersions(c *gin.Context) {
	versions, err := h.submissions.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "versions": versions, "total": len(versions)})
}

// GetVersion returns one version including its full snapshot.
func (h *Handler) GetVersion(c *gin.Context) {
	version, err := h.submissions.GetVersion(c.Request.Context(), c.Param("id"), c.Param("versionId"))
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": version})
}

// CompareVersionsQuery diffs two stored versions, ?from= and ?to= being
// version IDs.
func (h *Handler) CompareVersionsQuery(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "from and to version ids are required"})
		return
	}

	cmp, err := h.submissions.CompareVersions(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comparison": cmp})
}

type rollbackReq struct {
	Notes string `json:"notes,omitempty"`
}

// Rollback re-commits the target version's snapshot as a new version.
func (h *Handler) Rollback(c *gin.Context) {
	var req rollbackReq
	// The body is optional, but when present it has to parse.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	version, err := h.submissions.Rollback(
		c.Request.Context(), c.Param("id"), c.Param("versionId"), actor(c), req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "submission was modified concurrently, reload and retry"})
			return
		}
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": version})
}

// AuditTrail returns the change log derived from the version history.
func (h *Handler) AuditTrail(c *gin.Context) {
	entries, err := h.submissions.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "audit_trail": entries, "total": len(entries)})
}

func (h *Handler) notFoundOr500(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submission not found"})
	case errors.Is(err, domain.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "version not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
