// Package main provides the entry point for the PipeDeck server application.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pipedeck/pipedeck/internal/api"
	"github.com/pipedeck/pipedeck/internal/api/middleware"
	"github.com/pipedeck/pipedeck/internal/config"
	"github.com/pipedeck/pipedeck/internal/hosted"
	"github.com/pipedeck/pipedeck/internal/repository"
	"github.com/pipedeck/pipedeck/internal/services"
)

const serverVersion = "1.0.0"

func main() {
	ctx := context.Background()

	if err := run(ctx); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	cfg := config.NewConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	router, cleanup := setupRouter(cfg, logger)
	defer cleanup()

	server := &http.Server{
		Addr:         ":" + cfg.GetServerPort(),
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
		IdleTimeout:  cfg.GetIdleTimeout(),
	}

	go func() {
		logger.Info("starting server", "addr", server.Addr, "environment", cfg.GetEnvironment())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
		logger.Info("context canceled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.AppConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.GetLogLevel() {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// setupRouter wires the hosted clients, repositories, services, and handlers
// into the gin router. The returned cleanup releases the rate limiter
// backend.
func setupRouter(cfg *config.AppConfig, logger *slog.Logger) (*gin.Engine, func()) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Hosted service clients. The credential client carries the public
	// anonymous key; the data client carries the privileged service key and
	// stays server-side.
	credentials := hosted.NewHTTPSessionClient(cfg.GetAuthServiceURL(), cfg.GetAnonKey())
	dataClient := hosted.NewRESTDataClient(cfg.GetDataServiceURL(), cfg.GetServiceKey())
	verifier := hosted.NewTokenVerifier(cfg.GetJWTSecret())

	// Repositories over the hosted data service.
	sources := repository.NewHostedDataSourceRepository(dataClient)
	pipelines := repository.NewHostedPipelineRepository(dataClient)
	runs := repository.NewHostedPipelineRunRepository(dataClient)
	dashboards := repository.NewHostedDashboardRepository(dataClient)
	users := repository.NewHostedUserRepository(dataClient)

	// Services.
	analytics := services.NewAnalyticsService(sources, pipelines, runs)
	connector := services.NewConnectorService()

	// Middleware.
	session := middleware.NewSessionMiddleware(verifier)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.DefaultLoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.DefaultCORSMiddleware())

	router.LoadHTMLGlob(cfg.GetTemplateGlob())
	router.Static("/static", cfg.GetStaticDir())

	router.GET("/ping", api.PingHandler)
	router.GET("/health", api.HealthHandler(cfg.GetEnvironment(), serverVersion))

	var loginLimiter gin.HandlerFunc
	cleanup := func() {}
	if cfg.GetRateLimitEnabled() {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.GetLoginRatePerMinute(),
			UseRedis:          cfg.GetRedisEnabled(),
			RedisAddr:         cfg.GetRedisAddr(),
			RedisPassword:     cfg.GetRedisPassword(),
			RedisDB:           cfg.GetRedisDB(),
		})
		loginLimiter = limiter.Middleware()
		cleanup = func() { _ = limiter.Close() }
	}

	// JSON API.
	apiGroup := router.Group("/api")
	newFlow := func(provider string) *hosted.OAuthFlow {
		client := hosted.NewHTTPSessionClient(cfg.GetAuthServiceURL(), cfg.GetAnonKey())
		return hosted.NewOAuthFlow(client, provider, cfg.GetOAuthRedirectURL())
	}
	api.NewAuthHandler(credentials, newFlow, cfg.IsProduction()).RegisterRoutes(apiGroup, session, loginLimiter)
	api.NewDataSourceHandler(sources, connector).RegisterRoutes(apiGroup, session)
	api.NewPipelineHandler(pipelines, runs).RegisterRoutes(apiGroup, session)
	api.NewDashboardHandler(dashboards).RegisterRoutes(apiGroup, session)
	api.NewAnalyticsHandler(analytics).RegisterRoutes(apiGroup, session)
	api.NewTeamHandler(users).RegisterRoutes(apiGroup, session)
	api.NewRealtimeHandler(func() *hosted.HTTPSessionClient {
		return hosted.NewHTTPSessionClient(cfg.GetAuthServiceURL(), cfg.GetAnonKey())
	}, runs, logger).RegisterRoutes(apiGroup, session)

	// HTML pages.
	api.NewPagesHandler(cfg.PublicClient()).RegisterRoutes(router, session)

	return router, cleanup
}
