package folders

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.rename)
	rg.DELETE("/:public_id", h.delete)
}

func ownerUID(c *gin.Context) string {
	if uid := c.GetString("firebase_uid"); uid != "" {
		return uid
	}
	if uid := c.GetHeader("X-User-Id"); uid != "" {
		return uid
	}
	return "system"
}

type createReq struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	f, err := h.repo.Create(c.Request.Context(), ownerUID(c), strings.TrimSpace(req.Name), req.Source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "folder": f})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context(), ownerUID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "folders": items})
}

func (h *Handler) get(c *gin.Context) {
	f, err := h.repo.Get(c.Request.Context(), ownerUID(c), c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "folder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "folder": f})
}

type renameReq struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	publicID := c.Param("public_id")

	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	f, err := h.repo.Rename(c.Request.Context(), ownerUID(c), publicID, strings.TrimSpace(req.Name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "folder not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "folder": f})
}

func (h *Handler) delete(c *gin.Context) {
	ok, err := h.repo.SoftDelete(c.Request.Context(), ownerUID(c), c.Param("public_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "folder not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
