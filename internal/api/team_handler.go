package api

import (
	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/repository"
)

// TeamHandler serves the workspace member listing.
type TeamHandler struct {
	users repository.UserRepository
}

// NewTeamHandler creates a team handler.
func NewTeamHandler(users repository.UserRepository) *TeamHandler {
	return &TeamHandler{users: users}
}

// RegisterRoutes registers the team routes behind the session middleware.
func (h *TeamHandler) RegisterRoutes(router *gin.RouterGroup, session *middleware.SessionMiddleware) {
	router.GET("/team", session.RequireSession(), h.List)
}

// List returns the workspace members.
func (h *TeamHandler) List(c *gin.Context) {
	members, err := h.users.List(c.Request.Context(), repository.DefaultListLimit)
	if err != nil {
		SanitizedErrorResponse(c, err)
		return
	}
	SuccessResponse(c, gin.H{"members": members})
}
