package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pipedeck/pipedeck/internal/domain"
)

var (
	defaultSanitizer *ErrorSanitizer
	sanitizerOnce    sync.Once
)

func getDefaultSanitizer() *ErrorSanitizer {
	sanitizerOnce.Do(func() {
		defaultSanitizer = NewErrorSanitizer(slog.Default())
	})
	return defaultSanitizer
}

// ErrorSanitizer logs detailed errors server-side with correlation IDs and
// returns sanitized messages to clients. Hosted-service failures in
// particular surface as a generic message, never as the upstream error text.
type ErrorSanitizer struct {
	logger *slog.Logger
}

// NewErrorSanitizer creates an error sanitizer with structured logging.
func NewErrorSanitizer(logger *slog.Logger) *ErrorSanitizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorSanitizer{logger: logger}
}

// SanitizedErrorResponse handles an error for a JSON endpoint.
func (s *ErrorSanitizer) SanitizedErrorResponse(c *gin.Context, err error) {
	correlationID := s.getOrCreateCorrelationID(c)

	var domainErr *domain.Error
	isDomainError := errors.As(err, &domainErr)

	s.logError(c, err, correlationID, domainErr)

	statusCode, response := sanitizeForClient(domainErr, isDomainError, correlationID)
	c.JSON(statusCode, response)
}

func (s *ErrorSanitizer) getOrCreateCorrelationID(c *gin.Context) string {
	if id, exists := c.Get("correlation_id"); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	if id := c.GetHeader("X-Correlation-ID"); id != "" {
		c.Set("correlation_id", id)
		return id
	}
	correlationID := uuid.New().String()
	c.Set("correlation_id", correlationID)
	c.Header("X-Correlation-ID", correlationID)
	return correlationID
}

func (s *ErrorSanitizer) logError(c *gin.Context, err error, correlationID string, domainErr *domain.Error) {
	args := []any{
		slog.String("correlation_id", correlationID),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("remote_addr", c.ClientIP()),
	}
	if user, ok := GetUserFromContext(c); ok {
		args = append(args, slog.String("user_id", user.ID))
	}

	if domainErr != nil {
		args = append(args,
			slog.String("error_type", string(domainErr.Type)),
			slog.String("error_code", domainErr.Code),
			slog.String("error_message", domainErr.Message),
		)
		if domainErr.Cause != nil {
			args = append(args, slog.String("underlying_error", domainErr.Cause.Error()))
		}
		s.logger.Error("domain error", args...)
		return
	}

	args = append(args, slog.String("error", err.Error()))
	s.logger.Error("unexpected error", args...)
}

func sanitizeForClient(domainErr *domain.Error, isDomainError bool, correlationID string) (int, gin.H) {
	if !isDomainError {
		return http.StatusInternalServerError, gin.H{
			"success":        false,
			"correlation_id": correlationID,
			"error": map[string]interface{}{
				"type":    domain.InternalError,
				"code":    "SYSTEM_ERROR",
				"message": "An unexpected error occurred. Please try again later.",
			},
		}
	}

	errBody := map[string]interface{}{
		"type": domainErr.Type,
		"code": domainErr.Code,
	}

	switch domainErr.Type {
	case domain.ValidationError:
		errBody["message"] = "Invalid input provided"
		if domainErr.Details != nil {
			if field, ok := domainErr.Details["field"]; ok {
				errBody["field"] = field
			}
		}
	case domain.NotFoundError:
		errBody["message"] = "Requested resource not found"
	case domain.ConflictError:
		errBody["message"] = "Resource conflict occurred"
	case domain.AuthenticationError:
		errBody["message"] = "Authentication failed"
	case domain.AuthorizationError:
		errBody["message"] = "Access denied"
	case domain.ExternalServiceError:
		// Hosted auth/data failures are never detailed to the client.
		errBody["message"] = "Something went wrong. Please try again."
	default:
		errBody["message"] = "An error occurred while processing your request"
	}

	return statusCodeFor(domainErr.Type), gin.H{
		"success":        false,
		"correlation_id": correlationID,
		"error":          errBody,
	}
}

func statusCodeFor(errorType domain.ErrorType) int {
	switch errorType {
	case domain.ValidationError:
		return http.StatusBadRequest
	case domain.NotFoundError:
		return http.StatusNotFound
	case domain.ConflictError:
		return http.StatusConflict
	case domain.AuthenticationError:
		return http.StatusUnauthorized
	case domain.AuthorizationError:
		return http.StatusForbidden
	case domain.ExternalServiceError, domain.InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// SanitizedErrorResponse handles errors with sanitization and structured
// logging using the default sanitizer.
func SanitizedErrorResponse(c *gin.Context, err error) {
	getDefaultSanitizer().SanitizedErrorResponse(c, err)
}
