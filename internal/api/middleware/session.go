// Package middleware provides the gin middleware stack: session checking,
// request IDs, logging, panic recovery, CORS, and login rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

const (
	// SessionCookieName carries the hosted access token in the browser.
	SessionCookieName = "pd_session"
	// RefreshCookieName carries the hosted refresh token.
	RefreshCookieName = "pd_refresh"
	// UserContextKey is the gin context key for the authenticated user.
	UserContextKey = "user"
	// AccessTokenContextKey is the gin context key for the raw access token.
	AccessTokenContextKey = "access_token"
)

// SessionMiddleware authenticates requests against the hosted-auth access
// token carried in the session cookie or Authorization header.
type SessionMiddleware struct {
	verifier *hosted.TokenVerifier
}

// NewSessionMiddleware creates the session middleware.
func NewSessionMiddleware(verifier *hosted.TokenVerifier) *SessionMiddleware {
	return &SessionMiddleware{verifier: verifier}
}

// RequireSession rejects requests without a valid session cookie with 401.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, token, err := m.extractUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": map[string]interface{}{
					"type":    domain.AuthenticationError,
					"code":    "MISSING_SESSION",
					"message": "A valid session is required",
				},
			})
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Set(AccessTokenContextKey, token)
		c.Next()
	}
}

// RequireSessionPage redirects HTML requests without a valid session to the
// sign-in page instead of returning JSON.
func (m *SessionMiddleware) RequireSessionPage(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, token, err := m.extractUser(c)
		if err != nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Set(AccessTokenContextKey, token)
		c.Next()
	}
}

// RedirectAuthenticated is the mirror for public-only pages (sign-in and
// sign-up): visitors who already hold a session are sent to the dashboard.
func (m *SessionMiddleware) RedirectAuthenticated(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, err := m.extractUser(c); err == nil {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// extractUser pulls the access token from cookie or bearer header and
// verifies it.
func (m *SessionMiddleware) extractUser(c *gin.Context) (*domain.User, string, error) {
	token := extractBearer(c)
	if token == "" {
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		return nil, "", domain.NewAuthenticationError("MISSING_SESSION", "Session token required")
	}

	user, err := m.verifier.Verify(token)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// GetUserFromContext extracts the authenticated user from gin context.
func GetUserFromContext(c *gin.Context) (*domain.User, bool) {
	if user, exists := c.Get(UserContextKey); exists {
		if u, ok := user.(*domain.User); ok {
			return u, true
		}
	}
	return nil, false
}

// GetAccessToken extracts the raw access token from gin context.
func GetAccessToken(c *gin.Context) string {
	if token, exists := c.Get(AccessTokenContextKey); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
