package observability

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint OTLP/HTTP 接收端, 如 "localhost:4318"
	OTLPEndpoint string
	OTLPInsecure bool

	// SamplingRate 0.0 - 1.0
	SamplingRate float64
}

// TracingManager 追踪管理器
type TracingManager struct {
	config   TracingConfig
	provider *sdktrace.TracerProvider
}

// NewTracingManager 创建追踪管理器并注册为全局 TracerProvider
func NewTracingManager(ctx context.Context, config TracingConfig) (*TracingManager, error) {
	if !config.Enabled {
		return &TracingManager{config: config}, nil
	}

	if config.ServiceName == "" {
		config.ServiceName = "vectorhub"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}
	if config.OTLPEndpoint == "" {
		config.OTLPEndpoint = "localhost:4318"
	}
	if config.SamplingRate <= 0 {
		config.SamplingRate = 1.0
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.OTLPEndpoint),
	}
	if config.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SamplingRate))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracingManager{config: config, provider: provider}, nil
}

// Middleware 返回 Gin 追踪中间件, 未启用时直接放行
func (t *TracingManager) Middleware() gin.HandlerFunc {
	if t.provider == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(t.config.ServiceName, otelgin.WithTracerProvider(t.provider))
}

// Tracer 返回 tracer, 未启用时返回全局 (no-op) tracer
func (t *TracingManager) Tracer(name string) trace.Tracer {
	if t.provider == nil {
		return otel.Tracer(name)
	}
	return t.provider.Tracer(name)
}

// Shutdown 刷新并关闭 TracerProvider
func (t *TracingManager) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// TraceID 返回当前 span 的 trace ID, 没有有效 span 时返回空串
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
