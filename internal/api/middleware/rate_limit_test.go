package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(t *testing.T, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/auth/login", limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func attempt(router *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestMemoryBackend_EnforcesLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 3})
	defer func() { _ = limiter.Close() }()
	router := limitedRouter(t, limiter)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, attempt(router), "attempt %d should pass", i+1)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"RATE_LIMITED"`)
}

func TestMemoryBackend_WindowResets(t *testing.T) {
	counter := newMemoryCounter()
	defer func() { _ = counter.Close() }()

	for i := 0; i < 3; i++ {
		_, err := counter.Incr(context.Background(), "client", 20*time.Millisecond)
		require.NoError(t, err)
	}
	time.Sleep(40 * time.Millisecond)

	count, err := counter.Incr(context.Background(), "client", 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a fresh window starts counting from one")
}

func TestRedisBackend_EnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)

	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 2,
		UseRedis:          true,
		RedisAddr:         mr.Addr(),
	})
	defer func() { _ = limiter.Close() }()
	router := limitedRouter(t, limiter)

	require.Equal(t, http.StatusOK, attempt(router))
	require.Equal(t, http.StatusOK, attempt(router))
	assert.Equal(t, http.StatusTooManyRequests, attempt(router))
}

func TestRedisBackend_FailsOpenWhenUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		UseRedis:          true,
		RedisAddr:         addr,
	})
	defer func() { _ = limiter.Close() }()
	router := limitedRouter(t, limiter)

	// Counting is impossible, so the login path stays up.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, attempt(router))
	}
}

func TestKeyGenerator_SeparatesClients(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 1,
		KeyGenerator: func(c *gin.Context) string {
			return c.GetHeader("X-Client")
		},
	})
	defer func() { _ = limiter.Close() }()
	router := limitedRouter(t, limiter)

	send := func(client string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.Header.Set("X-Client", client)
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send("alpha"))
	assert.Equal(t, http.StatusTooManyRequests, send("alpha"))
	assert.Equal(t, http.StatusOK, send("beta"), "another client keeps its own budget")
}
