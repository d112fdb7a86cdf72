package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/services"
)

// AnalyticsHandler serves the aggregate views computed over fetched rows.
type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// RegisterRoutes registers the analytics routes behind the session
// middleware.
func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	group := router.Group("/analytics", session.RequireSession())
	{
		group.GET("/summary", h.Summary)
	}
}

// Summary returns the caller's aggregate source/pipeline/run figures.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	summary, err := h.analytics.Summary(c.Request.Context(), user.ID)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"summary": summary})
}
