package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

// VectorInput 待写入的一条文本
type VectorInput struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// VectorResult 向量及其源文本
type VectorResult struct {
	ID       string                 `json:"id"`
	Source   string                 `json:"source"`
	Values   []float32              `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Model    string                 `json:"model,omitempty"`
}

// MatchResult 检索命中结果, Score 越大越相似
type MatchResult struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Source   string                 `json:"source"`
	Values   []float32              `json:"values,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListVectorsOptions 列表选项
type ListVectorsOptions struct {
	Offset         int
	Limit          int
	ReturnValues   bool
	ReturnMetadata bool
}

// QueryOptions 检索选项
type QueryOptions struct {
	TopK int
	// SimilarityCutoff 非空时丢弃 Score 低于该值的结果
	SimilarityCutoff *float64
	ReturnValues     bool
	ReturnMetadata   bool
}

// InsertVectors 为一批文本生成向量并写入命名空间。
// model 非空时必须与命名空间绑定的模型一致。
func (s *Service) InsertVectors(ctx context.Context, namespace, model string, items []VectorInput) ([]VectorResult, error) {
	ns, err := s.namespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalid("vectors", "at least one vector is required")
	}
	if model != "" && model != ns.Model {
		return nil, invalid("model", "model %s does not match namespace model %s", model, ns.Model)
	}

	ids := make([]string, len(items))
	texts := make([]string, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.Text == "" {
			return nil, invalid(fmt.Sprintf("vectors[%d].text", i), "text is required")
		}
		id := it.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, dup := seen[id]; dup {
			return nil, invalid(fmt.Sprintf("vectors[%d].id", i), "duplicate id %s", id)
		}
		seen[id] = struct{}{}
		ids[i] = id
		texts[i] = it.Text
	}

	ctx, span := s.tracer.Start(ctx, "vectors.insert", trace.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.Int("vectors", len(items)),
	))
	defer span.End()

	embeddings, err := s.embed(ctx, ns.Model, texts)
	if err != nil {
		return nil, endSpan(span, err)
	}
	if len(embeddings) != len(items) {
		return nil, endSpan(span, fmt.Errorf("embedding returned %d vectors for %d inputs", len(embeddings), len(items)))
	}

	vectors := make([]types.Vector, len(items))
	records := make([]types.EmbeddingRecord, len(items))
	for i := range items {
		vectors[i] = types.Vector{
			ID:        ids[i],
			Namespace: namespace,
			Values:    embeddings[i],
			Metadata:  items[i].Metadata,
		}
		records[i] = types.EmbeddingRecord{
			Namespace: namespace,
			VectorID:  ids[i],
			Source:    texts[i],
		}
	}

	if _, err := s.index.Upsert(ctx, vectors); err != nil {
		return nil, endSpan(span, err)
	}
	if err := s.meta.UpsertEmbeddings(ctx, records); err != nil {
		// 索引已写入, 元数据失败时两边不一致
		logging.Error(ctx, "vectors.metadata_write_failed", map[string]interface{}{
			"namespace": namespace,
			"vectors":   len(items),
			"error":     err.Error(),
		})
		return nil, endSpan(span, err)
	}

	s.recorder.RecordVectorsWritten(namespace, len(items))
	logging.Info(ctx, "vectors.inserted", map[string]interface{}{
		"namespace": namespace,
		"model":     ns.Model,
		"vectors":   len(items),
	})

	out := make([]VectorResult, len(items))
	for i := range items {
		out[i] = VectorResult{
			ID:       ids[i],
			Source:   texts[i],
			Values:   embeddings[i],
			Metadata: items[i].Metadata,
			Model:    ns.Model,
		}
	}
	return out, nil
}

// GetVector 读取单个向量及其源文本
func (s *Service) GetVector(ctx context.Context, namespace, id string) (*VectorResult, error) {
	ns, err := s.namespace(ctx, namespace)
	if err != nil {
		return nil, err
	}

	var (
		found []types.Vector
		rec   *types.EmbeddingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		found, err = s.index.GetByIDs(gctx, namespace, []string{id})
		return err
	})
	g.Go(func() error {
		var err error
		rec, err = s.meta.GetEmbedding(gctx, namespace, id)
		if isMetadataNotFound(err) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, vectorNotFound(namespace, id)
	}

	v := found[0]
	res := &VectorResult{
		ID:       v.ID,
		Values:   v.Values,
		Metadata: v.Metadata,
		Model:    ns.Model,
	}
	if rec != nil {
		res.Source = rec.Source
	}
	return res, nil
}

// ListVectors 分页列出命名空间内的向量。
// 只有请求 values 或 metadata 时才访问向量索引。
func (s *Service) ListVectors(ctx context.Context, namespace string, opts ListVectorsOptions) ([]VectorResult, error) {
	ns, err := s.namespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	offset, limit := normalizePage(opts.Offset, opts.Limit)

	records, err := s.meta.ListEmbeddingsPaginated(ctx, namespace, offset, limit)
	if err != nil {
		return nil, err
	}

	var byID map[string]types.Vector
	if (opts.ReturnValues || opts.ReturnMetadata) && len(records) > 0 {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.VectorID
		}
		vectors, err := s.index.GetByIDs(ctx, namespace, ids)
		if err != nil {
			return nil, err
		}
		byID = make(map[string]types.Vector, len(vectors))
		for _, v := range vectors {
			byID[v.ID] = v
		}
	}

	out := make([]VectorResult, 0, len(records))
	for _, r := range records {
		res := VectorResult{ID: r.VectorID, Source: r.Source, Model: ns.Model}
		if v, ok := byID[r.VectorID]; ok {
			if opts.ReturnValues {
				res.Values = v.Values
			}
			if opts.ReturnMetadata {
				res.Metadata = v.Metadata
			}
		}
		out = append(out, res)
	}
	return out, nil
}

// DeleteVector 从索引和元数据库中并发删除一个向量
func (s *Service) DeleteVector(ctx context.Context, namespace, id string) (*DeleteResult, error) {
	if _, err := s.namespace(ctx, namespace); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "vectors.delete", trace.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("vector_id", id),
	))
	defer span.End()

	var (
		deleted int
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		deleted, err = s.index.DeleteByIDs(ctx, namespace, []string{id})
		return err
	})
	g.Go(func() error {
		_, err := s.meta.DeleteEmbedding(ctx, namespace, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, endSpan(span, err)
	}

	s.recorder.RecordVectorsDeleted(namespace, deleted)
	return &DeleteResult{Deleted: deleted == 1, Count: deleted}, nil
}

// Query 用命名空间绑定的模型为 input 生成向量, 并在命名空间内检索最相似的向量
func (s *Service) Query(ctx context.Context, namespace, input string, opts QueryOptions) ([]MatchResult, error) {
	ns, err := s.namespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if input == "" {
		return nil, invalid("inputs", "query input is required")
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	if topK > types.MaxTopK {
		topK = types.MaxTopK
	}

	ctx, span := s.tracer.Start(ctx, "vectors.query", trace.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.Int("top_k", topK),
	))
	defer span.End()

	embeddings, err := s.embed(ctx, ns.Model, []string{input})
	if err != nil {
		return nil, endSpan(span, err)
	}
	if len(embeddings) != 1 {
		return nil, endSpan(span, fmt.Errorf("embedding returned %d vectors for 1 input", len(embeddings)))
	}

	matches, err := s.index.Query(ctx, namespace, embeddings[0], index.QueryOptions{
		TopK:           topK,
		ReturnValues:   opts.ReturnValues,
		ReturnMetadata: opts.ReturnMetadata,
	})
	if err != nil {
		return nil, endSpan(span, err)
	}

	if opts.SimilarityCutoff != nil {
		kept := matches[:0]
		for _, m := range matches {
			if m.Score >= *opts.SimilarityCutoff {
				kept = append(kept, m)
			}
		}
		matches = kept
	}

	sources := make(map[string]string, len(matches))
	if len(matches) > 0 {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		records, err := s.meta.ListEmbeddingsByVectorIDs(ctx, namespace, ids)
		if err != nil {
			return nil, endSpan(span, err)
		}
		for _, r := range records {
			sources[r.VectorID] = r.Source
		}
	}

	out := make([]MatchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchResult{
			ID:       m.ID,
			Score:    m.Score,
			Source:   sources[m.ID],
			Values:   m.Values,
			Metadata: m.Metadata,
		})
	}
	s.recorder.RecordQuery(namespace, len(out))
	return out, nil
}
