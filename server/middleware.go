package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/server/observability"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware adds a unique request ID to each request and its context
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestID", requestID)
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// structuredLoggingMiddleware logs one "http.request" record per request
func structuredLoggingMiddleware(config LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := skip[path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if traceID := observability.TraceID(c.Request.Context()); traceID != "" {
			fields["trace_id"] = traceID
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			logging.Error(ctx, "http.request", fields)
		case status >= http.StatusBadRequest:
			logging.Warn(ctx, "http.request", fields)
		default:
			logging.Info(ctx, "http.request", fields)
		}
	}
}

// corsMiddleware handles CORS; origins are matched against glob patterns
func corsMiddleware(config CORSConfig) gin.HandlerFunc {
	wildcard := false
	for _, o := range config.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (wildcard || originAllowed(config.AllowOrigins, origin)) {
			if wildcard && !config.AllowCredentials {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", strings.Join(config.AllowMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(config.AllowHeaders, ", "))
			if len(config.ExposeHeaders) > 0 {
				c.Header("Access-Control-Expose-Headers", strings.Join(config.ExposeHeaders, ", "))
			}
			if config.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if config.MaxAge > 0 {
				c.Header("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(patterns []string, origin string) bool {
	for _, pattern := range patterns {
		// 非法模式按不匹配处理
		if ok, err := doublestar.Match(pattern, origin); err == nil && ok {
			return true
		}
	}
	return false
}
