package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wordflowlab/vectorhub/pkg/embedding"
	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

const tracerName = "github.com/wordflowlab/vectorhub/pkg/service"

// MetadataStore 服务层依赖的元数据存储, 由 metadata.Store 实现
type MetadataStore interface {
	CreateNamespace(ctx context.Context, name, model, description string) (*types.Namespace, error)
	GetNamespace(ctx context.Context, name string) (*types.Namespace, error)
	ListNamespaces(ctx context.Context, offset, limit int) ([]types.Namespace, error)
	DeleteNamespace(ctx context.Context, name string) (int64, error)

	ListEmbeddings(ctx context.Context, namespace string) ([]types.EmbeddingRecord, error)
	ListEmbeddingsPaginated(ctx context.Context, namespace string, offset, limit int) ([]types.EmbeddingRecord, error)
	ListEmbeddingsByVectorIDs(ctx context.Context, namespace string, vectorIDs []string) ([]types.EmbeddingRecord, error)
	GetEmbedding(ctx context.Context, namespace, vectorID string) (*types.EmbeddingRecord, error)
	UpsertEmbeddings(ctx context.Context, records []types.EmbeddingRecord) error
	DeleteEmbedding(ctx context.Context, namespace, vectorID string) (int64, error)
	DeleteEmbeddingsByNamespace(ctx context.Context, namespace string) (int64, error)
}

// Recorder 业务指标回调, 由 observability.MetricsManager 实现
type Recorder interface {
	RecordEmbedding(model string, inputs int, err error)
	RecordVectorsWritten(namespace string, n int)
	RecordVectorsDeleted(namespace string, n int)
	RecordQuery(namespace string, matches int)
}

type nopRecorder struct{}

func (nopRecorder) RecordEmbedding(string, int, error) {}
func (nopRecorder) RecordVectorsWritten(string, int) {}
func (nopRecorder) RecordVectorsDeleted(string, int) {}
func (nopRecorder) RecordQuery(string, int) {}

// Config 服务配置
type Config struct {
	// DefaultModel 创建命名空间时未指定模型所使用的 embedding 模型
	DefaultModel string

	// Dimensions 请求 embedding 服务时的输出维度, 0 表示模型默认
	Dimensions int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		DefaultModel: "text-embedding-3-large",
		Dimensions:   1024,
	}
}

// Service 协调元数据库、向量索引和 embedding 服务。
// 三者之间没有分布式事务, 写入顺序为先索引后元数据。
type Service struct {
	cfg      Config
	meta     MetadataStore
	index    index.Index
	embedder embedding.Embedder
	recorder Recorder
	tracer   trace.Tracer
}

// Option 配置 Service 的可选项
type Option func(*Service)

// WithRecorder 设置业务指标回调
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer 设置 tracer, 默认使用全局 TracerProvider
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New 创建 Service
func New(cfg Config, meta MetadataStore, idx index.Index, emb embedding.Embedder, opts ...Option) *Service {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultConfig().DefaultModel
	}
	s := &Service{
		cfg:      cfg,
		meta:     meta,
		index:    idx,
		embedder: emb,
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DescribeIndex 返回向量索引的实时描述
func (s *Service) DescribeIndex(ctx context.Context) (*types.IndexDescription, error) {
	ctx, span := s.tracer.Start(ctx, "index.describe")
	defer span.End()

	desc, err := s.index.Describe(ctx)
	return desc, endSpan(span, err)
}

func (s *Service) embed(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	ctx, span := s.tracer.Start(ctx, "embedding.embed", trace.WithAttributes(
		attribute.String("embedding.model", model),
		attribute.Int("embedding.inputs", len(inputs)),
	))
	defer span.End()

	vecs, err := s.embedder.Embed(ctx, embedding.Request{
		Model:      model,
		Dimensions: s.cfg.Dimensions,
		Inputs:     inputs,
	})
	s.recorder.RecordEmbedding(model, len(inputs), err)
	return vecs, endSpan(span, err)
}

func (s *Service) namespace(ctx context.Context, name string) (*types.Namespace, error) {
	ns, err := s.meta.GetNamespace(ctx, name)
	if err != nil {
		if isMetadataNotFound(err) {
			return nil, namespaceNotFound(name)
		}
		return nil, err
	}
	return ns, nil
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func normalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = types.DefaultListLimit
	}
	if limit > types.MaxListLimit {
		limit = types.MaxListLimit
	}
	return offset, limit
}
