package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy", func(t *testing.T) {
		h := NewHealthChecker("v0.0.1")
		h.RegisterCheck(NewFuncCheck("metadata", func(context.Context) error { return nil }))
		h.RegisterCheck(NewFuncCheck("index", func(context.Context) error { return nil }))

		info := h.Check(ctx)
		assert.Equal(t, HealthStatusHealthy, info.Status)
		assert.Equal(t, "v0.0.1", info.Version)
		assert.Len(t, info.Checks, 2)
	})

	t.Run("degraded", func(t *testing.T) {
		h := NewHealthChecker("v0.0.1")
		h.RegisterCheck(NewFuncCheck("metadata", func(context.Context) error { return nil }))
		h.RegisterCheck(NewFuncCheck("index", func(context.Context) error { return errors.New("down") }))

		info := h.Check(ctx)
		assert.Equal(t, HealthStatusDegraded, info.Status)
		assert.Equal(t, "down", info.Checks["index"].Error)
		assert.Equal(t, HealthStatusHealthy, info.Checks["metadata"].Status)
	})

	t.Run("unhealthy", func(t *testing.T) {
		h := NewHealthChecker("v0.0.1")
		h.RegisterCheck(NewFuncCheck("index", func(context.Context) error { return errors.New("down") }))

		info := h.Check(ctx)
		assert.Equal(t, HealthStatusUnhealthy, info.Status)
	})
}

func TestMetricsManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetricsManager("test")

	m.RecordEmbedding("model-a", 3, nil)
	m.RecordEmbedding("model-a", 1, errors.New("boom"))
	m.RecordVectorsWritten("docs", 3)
	m.RecordVectorsDeleted("docs", 2)
	m.RecordQuery("docs", 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.embeddingRequests.WithLabelValues("model-a", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embeddingRequests.WithLabelValues("model-a", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.embeddingInputs.WithLabelValues("model-a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.vectorsWritten.WithLabelValues("docs")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.vectorsDeleted.WithLabelValues("docs")))

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "/ping", "2xx")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_vectors_written_total")
}

func TestTracingManager_Disabled(t *testing.T) {
	tm, err := NewTracingManager(context.Background(), TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, tm.Middleware())
	assert.NotNil(t, tm.Tracer("test"))
	assert.NoError(t, tm.Shutdown(context.Background()))
	assert.Empty(t, TraceID(context.Background()))
}
