// Package config provides environment-driven application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig is the HTTP server configuration surface.
type ServerConfig interface {
	GetServerPort() string
	GetReadTimeout() time.Duration
	GetWriteTimeout() time.Duration
	GetIdleTimeout() time.Duration
	GetTemplateGlob() string
	GetStaticDir() string
}

// HostedConfig is the hosted auth/data service configuration surface. The
// service key is privileged and must never reach browser-facing code; use
// PublicClientConfig for anything rendered into a page.
type HostedConfig interface {
	GetAuthServiceURL() string
	GetDataServiceURL() string
	GetAnonKey() string
	GetServiceKey() string
}

// RedisConfig is the redis configuration surface for rate limiting.
type RedisConfig interface {
	GetRedisEnabled() bool
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

// AppConfig implements all configuration interfaces.
type AppConfig struct {
	serverPort   string
	environment  string
	logLevel     string
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	templateGlob string
	staticDir    string

	authServiceURL   string
	dataServiceURL   string
	anonKey          string
	serviceKey       string
	jwtSecret        string
	oauthRedirectURL string

	redisEnabled  bool
	redisAddr     string
	redisPassword string
	redisDB       int

	rateLimitEnabled bool
	loginRatePerMin  int
}

// PublicClientConfig is the only hosted-service configuration that may be
// rendered into a page: the base URL and the anonymous key.
type PublicClientConfig struct {
	AuthServiceURL string `json:"auth_service_url"`
	DataServiceURL string `json:"data_service_url"`
	AnonKey        string `json:"anon_key"`
}

// NewConfig creates a configuration instance from environment variables with
// development defaults.
func NewConfig() *AppConfig {
	return &AppConfig{
		serverPort:   getEnvString("SERVER_PORT", "8080"),
		environment:  getEnvString("ENVIRONMENT", "development"),
		logLevel:     getEnvString("LOG_LEVEL", "info"),
		readTimeout:  getEnvDuration("READ_TIMEOUT", "15s"),
		writeTimeout: getEnvDuration("WRITE_TIMEOUT", "15s"),
		idleTimeout:  getEnvDuration("IDLE_TIMEOUT", "60s"),
		templateGlob: getEnvString("TEMPLATE_GLOB", "web/templates/*.tmpl"),
		staticDir:    getEnvString("STATIC_DIR", "web/static"),

		authServiceURL:   getEnvString("HOSTED_AUTH_URL", "http://localhost:9999/auth/v1"),
		dataServiceURL:   getEnvString("HOSTED_DATA_URL", "http://localhost:9999/rest/v1"),
		anonKey:          getEnvString("HOSTED_ANON_KEY", ""),
		serviceKey:       getEnvString("HOSTED_SERVICE_KEY", ""),
		jwtSecret:        getEnvString("HOSTED_JWT_SECRET", ""),
		oauthRedirectURL: getEnvString("OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/callback"),

		redisEnabled:  getEnvBool("REDIS_ENABLED", false),
		redisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		redisPassword: getEnvString("REDIS_PASSWORD", ""),
		redisDB:       getEnvInt("REDIS_DB", 0),

		rateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		loginRatePerMin:  getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
	}
}

// GetServerPort returns the server port.
func (c *AppConfig) GetServerPort() string { return c.serverPort }

// GetEnvironment returns the application environment.
func (c *AppConfig) GetEnvironment() string { return c.environment }

// GetLogLevel returns the log level.
func (c *AppConfig) GetLogLevel() string { return c.logLevel }

// IsProduction reports whether the application runs in production.
func (c *AppConfig) IsProduction() bool { return c.environment == "production" }

// GetReadTimeout returns the server read timeout.
func (c *AppConfig) GetReadTimeout() time.Duration { return c.readTimeout }

// GetWriteTimeout returns the server write timeout.
func (c *AppConfig) GetWriteTimeout() time.Duration { return c.writeTimeout }

// GetIdleTimeout returns the server idle timeout.
func (c *AppConfig) GetIdleTimeout() time.Duration { return c.idleTimeout }

// GetTemplateGlob returns the HTML template glob.
func (c *AppConfig) GetTemplateGlob() string { return c.templateGlob }

// GetStaticDir returns the static asset directory.
func (c *AppConfig) GetStaticDir() string { return c.staticDir }

// GetAuthServiceURL returns the hosted auth service base URL.
func (c *AppConfig) GetAuthServiceURL() string { return c.authServiceURL }

// GetDataServiceURL returns the hosted data service base URL.
func (c *AppConfig) GetDataServiceURL() string { return c.dataServiceURL }

// GetAnonKey returns the public anonymous key.
func (c *AppConfig) GetAnonKey() string { return c.anonKey }

// GetServiceKey returns the privileged service key. Server-side use only.
func (c *AppConfig) GetServiceKey() string { return c.serviceKey }

// GetJWTSecret returns the shared secret for verifying hosted access tokens.
// Empty in development against a stub auth service.
func (c *AppConfig) GetJWTSecret() string { return c.jwtSecret }

// GetOAuthRedirectURL returns the callback URL registered with the hosted
// auth service for provider sign-in.
func (c *AppConfig) GetOAuthRedirectURL() string { return c.oauthRedirectURL }

// GetRedisEnabled reports whether redis-backed rate limiting is on.
func (c *AppConfig) GetRedisEnabled() bool { return c.redisEnabled }

// GetRedisAddr returns the redis address.
func (c *AppConfig) GetRedisAddr() string { return c.redisAddr }

// GetRedisPassword returns the redis password.
func (c *AppConfig) GetRedisPassword() string { return c.redisPassword }

// GetRedisDB returns the redis database index.
func (c *AppConfig) GetRedisDB() int { return c.redisDB }

// GetRateLimitEnabled reports whether login rate limiting is on.
func (c *AppConfig) GetRateLimitEnabled() bool { return c.rateLimitEnabled }

// GetLoginRatePerMinute returns the allowed login attempts per minute per
// client.
func (c *AppConfig) GetLoginRatePerMinute() int { return c.loginRatePerMin }

// PublicClient returns the browser-safe subset of the hosted configuration.
func (c *AppConfig) PublicClient() PublicClientConfig {
	return PublicClientConfig{
		AuthServiceURL: c.authServiceURL,
		DataServiceURL: c.dataServiceURL,
		AnonKey:        c.anonKey,
	}
}

// Validate checks the configuration. The privileged service key is required,
// must differ from the anonymous key, and is deliberately absent from
// PublicClient.
func (c *AppConfig) Validate() error {
	if c.serverPort == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.environment != "development" && c.environment != "staging" && c.environment != "production" {
		return fmt.Errorf("environment must be one of: development, staging, production")
	}
	if c.authServiceURL == "" || c.dataServiceURL == "" {
		return fmt.Errorf("hosted service URLs cannot be empty")
	}
	if c.anonKey == "" {
		return fmt.Errorf("hosted anonymous key is required")
	}
	if c.serviceKey == "" {
		return fmt.Errorf("hosted service key is required")
	}
	if c.serviceKey == c.anonKey {
		return fmt.Errorf("hosted service key must differ from the anonymous key")
	}
	if c.IsProduction() && c.jwtSecret == "" {
		return fmt.Errorf("hosted JWT secret is required in production")
	}
	return nil
}

// Helper functions for environment variable parsing.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Second
}
