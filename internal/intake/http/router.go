package http

import "github.com/gin-gonic/gin"

// Register attaches intake routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/documents", h.Submit)
	rg.GET("/documents/:id", h.GetDocument)
	rg.POST("/documents/:id/classify", h.Classify)
	rg.POST("/documents/:id/extract", h.Extract)
	rg.POST("/documents/batch-extract", h.BatchExtract)
	rg.GET("/folders/:folder_id/documents", h.ListFolderDocuments)
}
