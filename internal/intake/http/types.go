package http

import (
	"github.com/brokerdesk/submission-backend/internal/intake/service"
	"github.com/gin-gonic/gin"
)

// Handler bundles the dependencies for intake HTTP endpoints.
type Handler struct {
	intake *service.IntakeService
}

func New(intake *service.IntakeService) *Handler {
	return &Handler{intake: intake}
}

// actor resolves who is performing the request. Firebase auth sets
// firebase_uid; unauthenticated development traffic may pass X-User-Id.
func actor(c *gin.Context) string {
	if uid := c.GetString("firebase_uid"); uid != "" {
		return uid
	}
	if uid := c.GetHeader("X-User-Id"); uid != "" {
		return uid
	}
	return "system"
}
