package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipedeck/pipedeck/internal/domain"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

const testJWTSecret = "test-secret"

func signToken(t *testing.T, subject, email string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func sessionRouter(t *testing.T) (*gin.Engine, *SessionMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	session := NewSessionMiddleware(hosted.NewTokenVerifier(testJWTSecret))
	router := gin.New()
	return router, session
}

func TestRequireSession_MissingCookieIs401(t *testing.T) {
	router, session := sessionRouter(t)
	router.GET("/api/protected", session.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"MISSING_SESSION"`)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRequireSession_ValidCookiePassesUser(t *testing.T) {
	router, session := sessionRouter(t)

	var seen *domain.User
	router.GET("/api/protected", session.RequireSession(), func(c *gin.Context) {
		seen, _ = GetUserFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.AddCookie(&http.Cookie{
		Name:  SessionCookieName,
		Value: signToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour)),
	})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user1", seen.ID)
	assert.Equal(t, "user1@example.com", seen.Email)
}

func TestRequireSession_BearerHeaderWorks(t *testing.T) {
	router, session := sessionRouter(t)

	var token string
	router.GET("/api/protected", session.RequireSession(), func(c *gin.Context) {
		token = GetAccessToken(c)
		c.Status(http.StatusOK)
	})

	signed := signToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, signed, token, "raw token must be available downstream")
}

func TestRequireSession_ExpiredTokenIs401(t *testing.T) {
	router, session := sessionRouter(t)
	router.GET("/api/protected", session.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	req.AddCookie(&http.Cookie{
		Name:  SessionCookieName,
		Value: signToken(t, "user1", "user1@example.com", time.Now().Add(-time.Minute)),
	})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireSessionPage_RedirectsToLogin(t *testing.T) {
	router, session := sessionRouter(t)
	router.GET("/dashboard", session.RequireSessionPage("/login"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRedirectAuthenticated_MirrorsTheCheck(t *testing.T) {
	router, session := sessionRouter(t)
	router.GET("/login", session.RedirectAuthenticated("/dashboard"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("anonymous visitor sees the page", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("authenticated visitor is sent to the dashboard", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		req.AddCookie(&http.Cookie{
			Name:  SessionCookieName,
			Value: signToken(t, "user1", "user1@example.com", time.Now().Add(time.Hour)),
		})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	})
}

func TestExtractBearer_MalformedHeaderIgnored(t *testing.T) {
	router, session := sessionRouter(t)
	router.GET("/api/protected", session.RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, header := range []string{"Bearer", "Token abc", "bearer"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q must not authenticate", header)
	}
}
