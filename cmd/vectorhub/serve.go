package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wordflowlab/vectorhub"
	"github.com/wordflowlab/vectorhub/pkg/appconfig"
	"github.com/wordflowlab/vectorhub/pkg/embedding"
	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/index/memory"
	"github.com/wordflowlab/vectorhub/pkg/index/pgvector"
	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/pkg/metadata"
	"github.com/wordflowlab/vectorhub/pkg/service"
	"github.com/wordflowlab/vectorhub/pkg/types"
	"github.com/wordflowlab/vectorhub/server"
	"github.com/wordflowlab/vectorhub/server/observability"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional YAML config file")
	addr := fs.String("addr", "", "HTTP listen address, overrides server.host/server.port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := appconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		if err := applyAddr(cfg, *addr); err != nil {
			return err
		}
	}

	closeLog, err := setupLogging(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 元数据库
	meta, err := metadata.Open(&metadata.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        metadata.ParseLogLevel(cfg.Database.LogLevel),
		AutoMigrate:     true,
	})
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer meta.Close()

	idx, err := openIndex(ctx, cfg.Index)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer idx.Close()

	emb := newEmbedder(cfg.Embedding)

	// 观测
	var metrics *observability.MetricsManager
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetricsManager("vectorhub")
	}
	tracing, err := observability.NewTracingManager(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.TracingEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: vectorhub.Version,
		Environment:    cfg.Server.Mode,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.OTLPInsecure,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		// 追踪失败不影响服务启动
		logging.Warn(ctx, "tracing.init_failed", map[string]interface{}{"error": err.Error()})
		tracing = nil
	}

	var opts []service.Option
	if metrics != nil {
		opts = append(opts, service.WithRecorder(metrics))
	}
	if tracing != nil {
		opts = append(opts, service.WithTracer(tracing.Tracer("vectorhub/service")))
	}
	svc := service.New(service.Config{
		DefaultModel: cfg.Embedding.DefaultModel,
		Dimensions:   cfg.Embedding.Dimensions,
	}, meta, idx, emb, opts...)

	deps := &server.Dependencies{
		Service: svc,
		Metrics: metrics,
		Tracing: tracing,
		Checks: []observability.HealthCheck{
			observability.NewFuncCheck("metadata", meta.Ping),
			indexCheck(idx),
		},
	}

	srv, err := server.New(server.ConfigFromApp(cfg), deps)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if *configPath != "" {
		go func() {
			err := appconfig.Watch(ctx, *configPath, func(next *appconfig.Config) {
				applyLogLevel(ctx, next.Logging.Level)
			}, func(err error) {
				logging.Warn(ctx, "config.reload_failed", map[string]interface{}{"error": err.Error()})
			})
			if err != nil {
				logging.Warn(ctx, "config.watch_failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func applyAddr(cfg *appconfig.Config, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid -addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid -addr port %q: %w", portStr, err)
	}
	cfg.Server.Host = host
	cfg.Server.Port = port
	return nil
}

func setupLogging(cfg appconfig.LoggingConfig) (func(), error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logging.Default.SetLevel(level)

	if cfg.Output == "" || cfg.Output == "stdout" {
		return func() { logging.Flush(context.Background()) }, nil
	}
	ft, err := logging.NewFileTransport(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logging.Default.SetTransports(ft)
	return func() {
		logging.Flush(context.Background())
		_ = ft.Close()
	}, nil
}

func applyLogLevel(ctx context.Context, s string) {
	level, err := logging.ParseLevel(s)
	if err != nil {
		logging.Warn(ctx, "config.invalid_log_level", map[string]interface{}{"level": s})
		return
	}
	if level != logging.Default.Level() {
		logging.Default.SetLevel(level)
		logging.Info(ctx, "config.log_level_changed", map[string]interface{}{"level": s})
	}
}

func openIndex(ctx context.Context, cfg appconfig.IndexConfig) (index.Index, error) {
	switch cfg.Kind {
	case "memory":
		return memory.New(memory.Config{
			Name:        cfg.Name,
			Description: cfg.Description,
			Dimensions:  cfg.Dimensions,
			Metric:      types.Metric(cfg.Metric),
		})
	case "pgvector":
		return pgvector.New(ctx, &pgvector.Config{
			DSN:         cfg.DSN,
			Table:       cfg.Table,
			Description: cfg.Description,
			Dimension:   cfg.Dimensions,
			Metric:      types.Metric(cfg.Metric),
		})
	}
	return nil, errors.New("unsupported index kind: " + cfg.Kind)
}

// indexCheck 优先使用索引自带的 Ping, 否则以 Describe 代替
func indexCheck(idx index.Index) observability.HealthCheck {
	if p, ok := idx.(interface{ Ping(context.Context) error }); ok {
		return observability.NewFuncCheck("index", p.Ping)
	}
	return observability.NewFuncCheck("index", func(ctx context.Context) error {
		_, err := idx.Describe(ctx)
		return err
	})
}

func newEmbedder(cfg appconfig.EmbeddingConfig) embedding.Embedder {
	if cfg.Provider == "mock" {
		return embedding.NewMockEmbedder(cfg.Dimensions, cfg.Models...)
	}
	return embedding.NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
}
