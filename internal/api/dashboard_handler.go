package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/repository"
)

// DashboardHandler serves the dashboards CRUD endpoints.
type DashboardHandler struct {
	dashboards repository.DashboardRepository
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(dashboards repository.DashboardRepository) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// RegisterRoutes registers the dashboard routes behind the session
// middleware.
func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	group := router.Group("/dashboards", session.RequireSession())
	{
		group.GET("", h.List)
		group.POST("", h.Create)
	}
}

// List returns the caller's dashboards, newest first.
func (h *DashboardHandler) List(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	dashboards, err := h.dashboards.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"dashboards": dashboards})
}

type createDashboardRequest struct {
	Name   string          `json:"name" binding:"required"`
	Layout json.RawMessage `json:"layout"`
}

// Create stores a dashboard and returns the created row with 201.
func (h *DashboardHandler) Create(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	var req createDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SanitizedErrorResponse(c, domain.NewValidationError("INVALID_REQUEST",
			"Dashboard name is required", map[string]interface{}{"field": "name"}))
		return
	}

	dashboard := &domain.Dashboard{
		UserID: user.ID,
		Name:   req.Name,
		Layout: req.Layout,
	}
	if err := dashboard.Validate(); err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	created, err := h.dashboards.Create(c.Request.Context(), dashboard)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	CreatedResponse(c, gin.H{"dashboard": created})
}
