package api

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/repository"
	"github.com/pipedeck/pipedeck/internal/services"
)

// DataSourceHandler serves the data_sources CRUD endpoints.
type DataSourceHandler struct {
	sources   repository.DataSourceRepository
	connector services.ConnectorService
}

// NewDataSourceHandler creates a data source handler.
func NewDataSourceHandler(sources repository.DataSourceRepository, connector services.ConnectorService) *DataSourceHandler {
	return &DataSourceHandler{sources: sources, connector: connector}
}

// RegisterRoutes registers the data source routes behind the session
// middleware.
func (h *DataSourceHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	group := router.Group("/data-sources", session.RequireSession())
	{
		group.GET("", h.List)
		group.POST("", h.Create)
	}
}

// List returns the caller's data sources, newest first.
func (h *DataSourceHandler) List(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	sources, err := h.sources.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"data_sources": sources})
}

type createDataSourceRequest struct {
	Name   string          `json:"name" binding:"required"`
	Type   string          `json:"type" binding:"required"`
	Config json.RawMessage `json:"config"`
}

// Create verifies the connection best-effort, stores the row, and returns it
// with 201.
func (h *DataSourceHandler) Create(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	var req createDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SanitizedErrorResponse(c, domain.NewValidationError("INVALID_REQUEST",
			"Name and type are required", map[string]interface{}{"field": "name"}))
		return
	}

	source := &domain.DataSource{
		UserID: user.ID,
		Name:   req.Name,
		Type:   domain.DataSourceType(req.Type),
		Config: req.Config,
	}
	if err := source.Validate(); err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	// A failed check stores the source as disconnected rather than failing
	// the create.
	source.Status = h.connector.Verify(c.Request.Context(), source)

	created, err := h.sources.Create(c.Request.Context(), source)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	CreatedResponse(c, gin.H{"data_source": created})
}
