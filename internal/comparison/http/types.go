package http

import (
	"github.com/brokerdesk/submission-backend/internal/comparison/service"
	"github.com/gin-gonic/gin"
)

// Handler bundles the dependencies for comparison HTTP endpoints.
type Handler struct {
	comparisons *service.ComparisonService
}

func New(comparisons *service.ComparisonService) *Handler {
	return &Handler{comparisons: comparisons}
}

func actor(c *gin.Context) string {
	if uid := c.GetString("firebase_uid"); uid != "" {
		return uid
	}
	if uid := c.GetHeader("X-User-Id"); uid != "" {
		return uid
	}
	return "system"
}
