package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// RecoveryMiddleware converts panics into sanitized 500 responses and logs
// them with the request ID.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)
		logger.Error("panic recovered",
			slog.String("request_id", requestID),
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Any("panic", recovered),
		)

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": map[string]interface{}{
				"type":       domain.InternalError,
				"code":       "PANIC_RECOVERED",
				"message":    "Service temporarily unavailable",
				"request_id": requestID,
			},
		})
	})
}
