package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager Prometheus 指标管理器
type MetricsManager struct {
	// HTTP 指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// 业务指标
	embeddingRequests *prometheus.CounterVec
	embeddingInputs   *prometheus.CounterVec
	vectorsWritten    *prometheus.CounterVec
	vectorsDeleted    *prometheus.CounterVec
	queryMatches      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetricsManager 创建指标管理器, 使用独立的 registry
func NewMetricsManager(namespace string) *MetricsManager {
	if namespace == "" {
		namespace = "vectorhub"
	}

	m := &MetricsManager{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.embeddingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Embedding provider calls by model and outcome",
		},
		[]string{"model", "status"},
	)

	m.embeddingInputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_inputs_total",
			Help:      "Texts sent to the embedding provider",
		},
		[]string{"model"},
	)

	m.vectorsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_written_total",
			Help:      "Vectors upserted into the index",
		},
		[]string{"namespace"},
	)

	m.vectorsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_deleted_total",
			Help:      "Vectors removed from the index",
		},
		[]string{"namespace"},
	)

	m.queryMatches = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_matches",
			Help:      "Matches returned per similarity query after cutoff",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"namespace"},
	)

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.embeddingRequests,
		m.embeddingInputs,
		m.vectorsWritten,
		m.vectorsDeleted,
		m.queryMatches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Middleware Prometheus 中间件
func (m *MetricsManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 未匹配路由统一记为 "unmatched", 避免任意路径造成标签爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		m.requestsTotal.WithLabelValues(c.Request.Method, path, statusClass(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler Prometheus 指标暴露端点
func (m *MetricsManager) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return gin.WrapH(h)
}

// Registry 返回底层 registry, 便于测试读取
func (m *MetricsManager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordEmbedding 记录一次 embedding 调用
func (m *MetricsManager) RecordEmbedding(model string, inputs int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.embeddingRequests.WithLabelValues(model, status).Inc()
	m.embeddingInputs.WithLabelValues(model).Add(float64(inputs))
}

// RecordVectorsWritten 记录写入的向量数
func (m *MetricsManager) RecordVectorsWritten(namespace string, n int) {
	m.vectorsWritten.WithLabelValues(namespace).Add(float64(n))
}

// RecordVectorsDeleted 记录删除的向量数
func (m *MetricsManager) RecordVectorsDeleted(namespace string, n int) {
	m.vectorsDeleted.WithLabelValues(namespace).Add(float64(n))
}

// RecordQuery 记录一次检索返回的结果数
func (m *MetricsManager) RecordQuery(namespace string, matches int) {
	m.queryMatches.WithLabelValues(namespace).Observe(float64(matches))
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
