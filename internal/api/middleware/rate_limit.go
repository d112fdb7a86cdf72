package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pipedeck/pipedeck/internal/domain"
)

// RateLimitConfig configures the fixed-window login rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the allowed attempts per window per key.
	RequestsPerMinute int
	// UseRedis switches to the redis counter backend; otherwise an
	// in-process counter is used.
	UseRedis      bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// KeyGenerator derives the limit key from a request. Defaults to the
	// client IP.
	KeyGenerator func(c *gin.Context) string
}

// counterBackend is a fixed-window counter keyed by client.
type counterBackend interface {
	// Incr bumps the counter for key in the current window and returns the
	// new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// RateLimiter applies a fixed window limit to the routes it wraps. It is
// used on the credential endpoints only; CRUD traffic is not limited.
type RateLimiter struct {
	backend counterBackend
	limit   int
	keyFn   func(c *gin.Context) string
}

// NewRateLimiter creates a rate limiter from config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}
	keyFn := cfg.KeyGenerator
	if keyFn == nil {
		keyFn = func(c *gin.Context) string { return c.ClientIP() }
	}

	var backend counterBackend
	if cfg.UseRedis {
		backend = newRedisCounter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	} else {
		backend = newMemoryCounter()
	}

	return &RateLimiter{
		backend: backend,
		limit:   cfg.RequestsPerMinute,
		keyFn:   keyFn,
	}
}

// Middleware is the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.keyFn(c)
		count, err := l.backend.Incr(c.Request.Context(), key, time.Minute)
		if err != nil {
			// A broken limiter backend must not take the login path down.
			c.Next()
			return
		}
		if count > int64(l.limit) {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": map[string]interface{}{
					"type":    domain.AuthenticationError,
					"code":    "RATE_LIMITED",
					"message": "Too many attempts, try again later",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Close releases the counter backend.
func (l *RateLimiter) Close() error {
	return l.backend.Close()
}

// redisCounter counts in redis so the limit holds across server replicas.
type redisCounter struct {
	client *redis.Client
}

func newRedisCounter(addr, password string, db int) *redisCounter {
	return &redisCounter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(window.Seconds()))

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *redisCounter) Close() error {
	return r.client.Close()
}

// memoryCounter is the single-process fallback backend.
type memoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{windows: make(map[string]*memoryWindow)}
}

func (m *memoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
	}
	w.count++

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(m.windows) > 4096 {
		for k, win := range m.windows {
			if now.After(win.resetAt) {
				delete(m.windows, k)
			}
		}
	}
	return w.count, nil
}

func (m *memoryCounter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = make(map[string]*memoryWindow)
	return nil
}
