package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/brokerdesk/submission-backend/internal/comparison/domain"
	subdomain "github.com/brokerdesk/submission-backend/internal/submissions/domain"
	"github.com/gin-gonic/gin"
)

type compareReq struct {
	SubmissionID string         `json:"submission_id,omitempty"`
	SnapshotA    map[string]any `json:"snapshot_a"`
	SnapshotB    map[string]any `json:"snapshot_b"`
	LabelA       string         `json:"label_a,omitempty"`
	LabelB       string         `json:"label_b,omitempty"`
}

// Compare runs the comparator over two submitted snapshots and stores
// the result for later resolution.
func (h *Handler) Compare(c *gin.Context) {
	var req compareReq
	if err := c.ShouldBindJSON(&req); err != nil || req.SnapshotA == nil || req.SnapshotB == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "snapshot_a and snapshot_b are required"})
		return
	}
	if req.LabelA == "" {
		req.LabelA = "source_a"
	}
	if req.LabelB == "" {
		req.LabelB = "source_b"
	}

	cmp, err := h.comparisons.CompareSnapshots(
		c.Request.Context(), req.SubmissionID, req.SnapshotA, req.SnapshotB, req.LabelA, req.LabelB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "comparison": cmp})
}

// CompareWithOriginal compares a submission's current snapshot against
// its version 1 extraction result.
func (h *Handler) CompareWithOriginal(c *gin.Context) {
	cmp, err := h.comparisons.CompareWithOriginal(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, subdomain.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submission not found"})
		case errors.Is(err, subdomain.ErrVersionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "original version not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comparison": cmp})
}

// Get retrieves a stored comparison result.
func (h *Handler) Get(c *gin.Context) {
	cmp, err := h.comparisons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrComparisonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "comparison not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "comparison": cmp})
}

type suggestReq struct {
	ConfidenceA map[string]float64 `json:"confidence_a,omitempty"`
	ConfidenceB map[string]float64 `json:"confidence_b,omitempty"`
}

// Suggest recommends a resolution for each conflict of a stored
// comparison. Per-field extraction confidence for either side may be
// supplied in the body to let one side win.
func (h *Handler) Suggest(c *gin.Context) {
	var req suggestReq
	// The body is optional, but when present it has to parse.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	suggestions, err := h.comparisons.SuggestResolutions(
		c.Request.Context(), c.Param("id"), req.ConfidenceA, req.ConfidenceB)
	if err != nil {
		if errors.Is(err, domain.ErrComparisonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "comparison not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "suggestions": suggestions, "total": len(suggestions)})
}

type resolveReq struct {
	ComparisonID string              `json:"comparison_id,omitempty"`
	Resolutions  []domain.Resolution `json:"resolutions"`
}

// Resolve applies a batch of conflict decisions to a stored comparison
// and commits the merged snapshot as a new submission version.
func (h *Handler) Resolve(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	h.resolve(c, c.Param("id"), req.Resolutions)
}

// ResolveForSubmission applies conflict decisions addressed by submission:
// the body names the stored comparison, and it must belong to the
// submission in the path.
func (h *Handler) ResolveForSubmission(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ComparisonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "comparison_id is required"})
		return
	}

	cmp, err := h.comparisons.Get(c.Request.Context(), req.ComparisonID)
	if err != nil {
		if errors.Is(err, domain.ErrComparisonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "comparison not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if cmp.SubmissionID != c.Param("id") {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "comparison does not belong to this submission"})
		return
	}

	h.resolve(c, req.ComparisonID, req.Resolutions)
}

func (h *Handler) resolve(c *gin.Context, comparisonID string, resolutions []domain.Resolution) {
	result, err := h.comparisons.Resolve(c.Request.Context(), comparisonID, resolutions, actor(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrComparisonNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "comparison not found"})
		case errors.Is(err, domain.ErrUnknownConflictField),
			errors.Is(err, domain.ErrDuplicateResolution),
			errors.Is(err, domain.ErrInvalidResolutionAction),
			errors.Is(err, domain.ErrComparisonNotResolvable):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		case errors.Is(err, subdomain.ErrConcurrentModification):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "submission was modified concurrently, reload and retry"})
		case errors.Is(err, subdomain.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "submission not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}
