// Package api provides the HTTP handlers and shared response utilities for
// the PipeDeck server.
//
// All handlers report failures through SanitizedErrorResponse so hosted
// service errors never leak upstream detail to clients.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// UserContextKey is the gin context key the session middleware stores the
// authenticated user under.
const UserContextKey = "user"

// SuccessResponse returns a standardized success response.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse returns a standardized created response.
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetUserFromContext extracts the authenticated user placed by the session
// middleware.
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	if user, exists := c.Get(UserContextKey); exists {
		if u, ok := user.(*domain.User); ok {
			return u, true
		}
	}
	return nil, false
}
