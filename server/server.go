package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/server/auth"
	"github.com/wordflowlab/vectorhub/server/handlers"
	"github.com/wordflowlab/vectorhub/server/observability"
	"github.com/wordflowlab/vectorhub/server/ratelimit"
)

// Server represents the VectorHub HTTP server
type Server struct {
	config *Config
	router *gin.Engine
	server *http.Server
	svc    handlers.Service

	// Auth & Observability
	authManager   *auth.Manager
	metrics       *observability.MetricsManager
	healthChecker *observability.HealthChecker
	tracing       *observability.TracingManager
	rateLimiter   *ratelimit.TokenBucketLimiter

	extraChecks []observability.HealthCheck
}

// Dependencies holds all dependencies for the server
type Dependencies struct {
	Service handlers.Service

	// Checks are registered with the health checker (metadata ping, index describe)
	Checks []observability.HealthCheck

	// Metrics is shared with the service recorder; created here when nil and enabled
	Metrics *observability.MetricsManager

	// Tracing is optional; its middleware is installed when non-nil
	Tracing *observability.TracingManager
}

// New creates a new Server instance with the given configuration
func New(config *Config, deps *Dependencies, opts ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if deps == nil || deps.Service == nil {
		return nil, fmt.Errorf("dependencies cannot be nil")
	}

	// Set Gin mode based on config
	switch config.Mode {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	s := &Server{
		config:  config,
		router:  gin.New(),
		svc:     deps.Service,
		metrics: deps.Metrics,
		tracing: deps.Tracing,
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	checks := make([]observability.HealthCheck, 0, len(deps.Checks)+len(s.extraChecks))
	checks = append(checks, deps.Checks...)
	s.initializeAuthAndObservability(append(checks, s.extraChecks...))
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// initializeAuthAndObservability initializes authentication and observability components
func (s *Server) initializeAuthAndObservability(checks []observability.HealthCheck) {
	s.authManager = auth.NewManager()
	if s.config.Auth.APIKey.Enabled {
		s.authManager.Register(auth.NewAPIKeyAuthenticator(s.config.Auth.APIKey.HeaderName, s.config.Auth.APIKey.Keys))
	}
	if s.config.Auth.JWT.Enabled {
		s.authManager.Register(auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   s.config.Auth.JWT.Secret,
			Issuer:   s.config.Auth.JWT.Issuer,
			Audience: s.config.Auth.JWT.Audience,
		}))
	}

	if s.config.Observability.Metrics.Enabled && s.metrics == nil {
		s.metrics = observability.NewMetricsManager("vectorhub")
	}

	if s.config.Observability.HealthCheck.Enabled {
		s.healthChecker = observability.NewHealthChecker(s.config.Version)
		for _, check := range checks {
			s.healthChecker.RegisterCheck(check)
		}
	}

	if s.config.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewLimiterFromConfig(ratelimit.Config{
			Enabled:           true,
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		})
	}
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())

	// Tracing middleware (should be early in the chain)
	if s.tracing != nil {
		s.router.Use(s.tracing.Middleware())
	}

	if s.config.Logging.Structured {
		s.router.Use(structuredLoggingMiddleware(s.config.Logging))
	}

	if s.config.CORS.Enabled {
		s.router.Use(corsMiddleware(s.config.CORS))
	}

	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	if s.healthChecker != nil {
		s.router.GET(s.config.Observability.HealthCheck.Endpoint, s.healthCheck)
	}

	// Metrics endpoint (no auth required)
	if s.metrics != nil {
		s.router.GET(s.config.Observability.Metrics.Endpoint, s.metrics.Handler())
	}

	api := s.router.Group("/api")
	api.Use(s.authManager.Middleware())
	if s.rateLimiter != nil {
		api.Use(ratelimit.Middleware(ratelimit.Config{Enabled: true}, s.rateLimiter))
	}

	s.registerNamespaceRoutes(api)
	s.registerVectorRoutes(api)
	s.registerIndexRoutes(api)

	s.router.NoRoute(notFound)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logging.Info(context.Background(), "server.starting", map[string]interface{}{
		"addr":    addr,
		"mode":    s.config.Mode,
		"version": s.config.Version,
		"auth":    s.authManager.Enabled(),
	})

	var err error
	if s.config.TLS.Enabled {
		err = s.server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
	} else {
		err = s.server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	if s.server == nil {
		return nil
	}

	logging.Info(ctx, "server.stopping", nil)

	if s.tracing != nil {
		if err := s.tracing.Shutdown(ctx); err != nil {
			logging.Warn(ctx, "server.tracing_shutdown_failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Info(ctx, "server.stopped", nil)
	return nil
}

// Router returns the underlying Gin router for advanced customization
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	info := s.healthChecker.Check(c.Request.Context())
	status := http.StatusOK
	if info.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, info)
}
