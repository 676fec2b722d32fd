package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/wordflowlab/vectorhub/pkg/appconfig"
	"github.com/wordflowlab/vectorhub/pkg/embedding"
	"github.com/wordflowlab/vectorhub/pkg/index/memory"
	"github.com/wordflowlab/vectorhub/pkg/metadata"
	"github.com/wordflowlab/vectorhub/pkg/service"
	"github.com/wordflowlab/vectorhub/server/auth"
	"github.com/wordflowlab/vectorhub/server/observability"
)

func testConfig() *Config {
	config := DefaultConfig()
	config.Mode = "test"
	config.RateLimit.Enabled = false
	config.Logging.Structured = false
	return config
}

func newTestServer(t *testing.T, config *Config, opts ...Option) *Server {
	t.Helper()

	meta, err := metadata.Open(&metadata.Config{
		Driver:      "sqlite",
		DSN:         ":memory:",
		LogLevel:    logger.Silent,
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	idx, err := memory.New(memory.Config{Name: "test-index", Dimensions: 8})
	require.NoError(t, err)

	metrics := observability.NewMetricsManager("vectorhub")
	svc := service.New(service.Config{DefaultModel: "text-embedding-3-large", Dimensions: 8},
		meta, idx, embedding.NewMockEmbedder(8), service.WithRecorder(metrics))

	s, err := New(config, &Dependencies{
		Service: svc,
		Metrics: metrics,
		Checks: []observability.HealthCheck{
			observability.NewFuncCheck("metadata", meta.Ping),
			observability.NewFuncCheck("index", func(ctx context.Context) error {
				_, err := idx.Describe(ctx)
				return err
			}),
		},
	}, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestNew_RequiresService(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.Error(t, err)

	_, err = New(testConfig(), &Dependencies{})
	assert.Error(t, err)
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, testConfig())

	body := `{"name":"docs"}`
	req := httptest.NewRequest(http.MethodPost, "/api/namespaces", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(s, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	body = `{"vectors":[{"id":"a","text":"hello"}]}`
	req = httptest.NewRequest(http.MethodPost, "/api/vectors/docs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = serve(s, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/vectors/docs/a", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/index", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"route not found"}`, w.Body.String())
}

func TestServer_RequestIDPassthrough(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/namespaces", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := serve(s, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, testConfig(),
		WithHealthCheck(observability.NewFuncCheck("broken", func(context.Context) error {
			return errors.New("down")
		})))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"metadata"`)

	serve(s, httptest.NewRequest(http.MethodGet, "/api/namespaces", nil))
	w = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vectorhub_http_requests_total")
}

func TestServer_Auth(t *testing.T) {
	config := testConfig()
	config.Auth.APIKey = APIKeyConfig{Enabled: true, HeaderName: "X-API-Key", Keys: []string{"k1"}}
	config.Auth.JWT = JWTConfig{Enabled: true, Secret: "s3cret", Issuer: "vectorhub", Audience: "vectorhub-api"}
	s := newTestServer(t, config)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/namespaces", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/namespaces", nil)
	req.Header.Set("X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	token, _, err := auth.NewJWTAuthenticator(auth.JWTConfig{
		Secret:   "s3cret",
		Issuer:   "vectorhub",
		Audience: "vectorhub-api",
	}).GenerateToken("ci")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/namespaces", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(s, req).Code)

	// health 不需要认证
	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestServer_RateLimit(t *testing.T) {
	config := testConfig()
	config.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}
	s := newTestServer(t, config)

	assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/api/namespaces", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, httptest.NewRequest(http.MethodGet, "/api/namespaces", nil)).Code)
}

func TestCORS_OriginPatterns(t *testing.T) {
	config := testConfig()
	config.CORS.AllowOrigins = []string{"https://*.example.com", "http://localhost:3000"}
	s := newTestServer(t, config)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.example.com", true},
		{"http://localhost:3000", true},
		{"https://example.org", false},
		{"http://app.example.com", false},
	}
	for _, tc := range cases {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/namespaces", nil)
			req.Header.Set("Origin", tc.origin)
			w := serve(s, req)
			assert.Equal(t, http.StatusNoContent, w.Code)
			if tc.allowed {
				assert.Equal(t, tc.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestConfigFromApp(t *testing.T) {
	app := appconfig.Default()
	app.Server.Port = 9999
	app.Auth.APIKey.Enabled = true
	app.Auth.APIKey.Keys = []string{"k"}
	app.RateLimit.Burst = 7
	app.Observability.MetricsEnabled = false

	config := ConfigFromApp(app)
	assert.Equal(t, 9999, config.Port)
	assert.True(t, config.Auth.APIKey.Enabled)
	assert.Equal(t, "X-API-Key", config.Auth.APIKey.HeaderName)
	assert.Equal(t, 7, config.RateLimit.Burst)
	assert.False(t, config.Observability.Metrics.Enabled)
	assert.Equal(t, []string{"*"}, config.CORS.AllowOrigins)
}
