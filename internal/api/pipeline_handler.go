package api

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/repository"
)

// PipelineHandler serves the pipelines CRUD endpoints and the run history.
type PipelineHandler struct {
	pipelines repository.PipelineRepository
	runs      repository.PipelineRunRepository
}

// NewPipelineHandler creates a pipeline handler.
func NewPipelineHandler(pipelines repository.PipelineRepository, runs repository.PipelineRunRepository) *PipelineHandler {
	return &PipelineHandler{pipelines: pipelines, runs: runs}
}

// RegisterRoutes registers the pipeline routes behind the session middleware.
func (h *PipelineHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	group := router.Group("/pipelines", session.RequireSession())
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/:id/runs", h.ListRuns)
	}
}

// List returns the caller's pipelines, newest first.
func (h *PipelineHandler) List(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	pipelines, err := h.pipelines.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"pipelines": pipelines})
}

type createPipelineRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Steps         json.RawMessage `json:"steps"`
	Schedule      string          `json:"schedule"`
	DataSourceIDs []string        `json:"data_source_ids"`
}

// Create stores a draft pipeline, attaches the named data sources, and
// returns the created row with 201. Steps are stored verbatim; this
// application never executes them.
func (h *PipelineHandler) Create(c *gin.Context) {
	user, _ := GetUserFromContext(c)

	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SanitizedErrorResponse(c, domain.NewValidationError("INVALID_REQUEST",
			"Pipeline name is required", map[string]interface{}{"field": "name"}))
		return
	}

	pipeline := &domain.Pipeline{
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		Status:      domain.PipelineDraft,
		Steps:       req.Steps,
		Schedule:    req.Schedule,
	}
	if err := pipeline.Validate(); err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	created, err := h.pipelines.Create(c.Request.Context(), pipeline)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}

	for _, sourceID := range req.DataSourceIDs {
		if _, err := h.pipelines.AttachDataSource(c.Request.Context(), created.ID, sourceID); err != nil {
			SanitizedErrorResponse(c, err)
			return
		}
	}

	CreatedResponse(c, gin.H{"pipeline": created})
}

// ListRuns returns the recent run history of one of the caller's pipelines.
func (h *PipelineHandler) ListRuns(c *gin.Context) {
	user, _ := GetUserFromContext(c)
	pipelineID := c.Param("id")

	pipeline, err := h.pipelines.GetByID(c.Request.Context(), pipelineID)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	if pipeline.UserID != user.ID {
		SanitizedErrorResponse(c, domain.NewAuthorizationError("NOT_OWNER",
			"You can only view runs of your own pipelines"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.runs.ListByPipeline(c.Request.Context(), pipelineID, limit)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"runs": runs})
}
