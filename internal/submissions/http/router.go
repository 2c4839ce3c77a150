package http

import "github.com/gin-gonic/gin"

// Register attaches submission routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.POST("/:id/data", h.UpdateData)
	rg.GET("/:id/versions", h.ListVersions)
	rg.GET("/:id/versions/compare", h.CompareVersionsQuery)
	rg.GET("/:id/versions/:versionId", h.GetVersion)
	rg.POST("/:id/versions/:versionId/rollback", h.Rollback)
	rg.GET("/:id/audit-trail", h.AuditTrail)
}
