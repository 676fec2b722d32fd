package server

import (
	"time"

	"github.com/wordflowlab/vectorhub"
	"github.com/wordflowlab/vectorhub/pkg/appconfig"
)

// Config holds all configuration for the VectorHub HTTP server
type Config struct {
	Host    string
	Port    int
	Mode    string // "development" or "production"
	Version string

	CORS          CORSConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	TLS TLSConfig
}

// CORSConfig holds CORS configuration.
// AllowOrigins entries are glob patterns, e.g. "https://*.example.com".
type CORSConfig struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKey APIKeyConfig
	JWT    JWTConfig
}

// APIKeyConfig holds API key authentication settings
type APIKeyConfig struct {
	Enabled    bool
	HeaderName string
	Keys       []string
}

// JWTConfig holds JWT authentication settings
type JWTConfig struct {
	Enabled  bool
	Secret   string
	Issuer   string
	Audience string
}

// RateLimitConfig holds per-client token bucket settings
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds request logging configuration
type LoggingConfig struct {
	Structured bool
	SkipPaths  []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Metrics     MetricsConfig
	HealthCheck HealthCheckConfig
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// HealthCheckConfig holds health check settings
type HealthCheckConfig struct {
	Enabled  bool
	Endpoint string
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// DefaultConfig returns a default configuration for development
func DefaultConfig() *Config {
	return &Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Mode:    "development",
		Version: vectorhub.Version,
		CORS: CORSConfig{
			Enabled:          true,
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           86400,
		},
		Auth: AuthConfig{
			APIKey: APIKeyConfig{
				Enabled:    false,
				HeaderName: "X-API-Key",
			},
			JWT: JWTConfig{
				Enabled:  false,
				Issuer:   "vectorhub",
				Audience: "vectorhub-api",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: LoggingConfig{
			Structured: true,
			SkipPaths:  []string{"/health", "/metrics"},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled:  true,
				Endpoint: "/metrics",
			},
			HealthCheck: HealthCheckConfig{
				Enabled:  true,
				Endpoint: "/health",
			},
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// ConfigFromApp derives the server configuration from the application config file
func ConfigFromApp(app *appconfig.Config) *Config {
	config := DefaultConfig()
	if app == nil {
		return config
	}

	config.Host = app.Server.Host
	config.Port = app.Server.Port
	config.Mode = app.Server.Mode
	if app.Server.ReadTimeout > 0 {
		config.ReadTimeout = app.Server.ReadTimeout
	}
	if app.Server.WriteTimeout > 0 {
		config.WriteTimeout = app.Server.WriteTimeout
	}
	if app.Server.IdleTimeout > 0 {
		config.IdleTimeout = app.Server.IdleTimeout
	}

	config.CORS.Enabled = app.CORS.Enabled
	if len(app.CORS.AllowOrigins) > 0 {
		config.CORS.AllowOrigins = app.CORS.AllowOrigins
	}

	config.Auth.APIKey = APIKeyConfig{
		Enabled:    app.Auth.APIKey.Enabled,
		HeaderName: app.Auth.APIKey.HeaderName,
		Keys:       app.Auth.APIKey.Keys,
	}
	config.Auth.JWT = JWTConfig{
		Enabled:  app.Auth.JWT.Enabled,
		Secret:   app.Auth.JWT.Secret,
		Issuer:   app.Auth.JWT.Issuer,
		Audience: app.Auth.JWT.Audience,
	}

	config.RateLimit = RateLimitConfig{
		Enabled:           app.RateLimit.Enabled,
		RequestsPerSecond: app.RateLimit.RequestsPerSecond,
		Burst:             app.RateLimit.Burst,
	}

	config.Observability.Metrics.Enabled = app.Observability.MetricsEnabled
	return config
}
