package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/hosted"
)

const testJWTSecret = "handler-test-secret"

// testSessionMiddleware builds the session middleware used to protect the
// routes under test.
func testSessionMiddleware() *middleware.SessionMiddleware {
	return middleware.NewSessionMiddleware(hosted.NewTokenVerifier(testJWTSecret))
}

// sessionCookie mints a signed access token for the given identity and wraps
// it in the browser session cookie.
func sessionCookie(t *testing.T, userID, email string) *http.Cookie {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

// apiGroup returns a fresh test router and its /api group.
func apiGroup(t *testing.T) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, router.Group("/api")
}
