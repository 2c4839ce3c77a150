package http

import "github.com/gin-gonic/gin"

// Register attaches comparison routes to the given router group. The
// compare-with-original and submission-scoped resolve routes are
// registered by the caller under the submissions group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Compare)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/suggest", h.Suggest)
	rg.POST("/:id/resolve", h.Resolve)
}
