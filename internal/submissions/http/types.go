package http

import (
	"github.com/brokerdesk/submission-backend/internal/submissions/service"
	"github.com/gin-gonic/gin"
)

// Handler bundles the dependencies for submission HTTP endpoints.
type Handler struct {
	submissions *service.SubmissionService
}

func New(submissions *service.SubmissionService) *Handler {
	return &Handler{submissions: submissions}
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
