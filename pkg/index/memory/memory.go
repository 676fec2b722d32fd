package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

// Config 内存索引配置
type Config struct {
	Name        string
	Description string
	Dimensions  int
	Metric      types.Metric
}

// Index 一个简单的内存向量索引实现, 用于开发和测试。
// 精确检索, 不适合大数据量的生产环境。
type Index struct {
	mu     sync.RWMutex
	cfg    Config
	spaces map[string]map[string]types.Vector // namespace -> id -> vector
}

// New 创建内存索引
func New(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be > 0")
	}
	if cfg.Metric == "" {
		cfg.Metric = types.MetricCosine
	}
	if !cfg.Metric.Valid() {
		return nil, fmt.Errorf("unsupported metric: %s", cfg.Metric)
	}
	if cfg.Name == "" {
		cfg.Name = "vectorhub-memory"
	}
	return &Index{
		cfg:    cfg,
		spaces: make(map[string]map[string]types.Vector),
	}, nil
}

// Describe 返回索引配置
func (x *Index) Describe(_ context.Context) (*types.IndexDescription, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var count int64
	for _, vs := range x.spaces {
		count += int64(len(vs))
	}
	return &types.IndexDescription{
		ID:           x.cfg.Name,
		Name:         x.cfg.Name,
		Description:  x.cfg.Description,
		Dimensions:   x.cfg.Dimensions,
		Metric:       x.cfg.Metric,
		VectorsCount: count,
	}, nil
}

// Upsert 写入或覆盖向量。维度不一致时整批拒绝。
func (x *Index) Upsert(_ context.Context, vectors []types.Vector) ([]string, error) {
	if err := index.CheckDimensions(vectors, x.cfg.Dimensions); err != nil {
		return nil, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	ids := make([]string, 0, len(vectors))
	for _, v := range vectors {
		if v.ID == "" {
			continue
		}
		vs, ok := x.spaces[v.Namespace]
		if !ok {
			vs = make(map[string]types.Vector)
			x.spaces[v.Namespace] = vs
		}
		vs[v.ID] = copyVector(v)
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// Query 在命名空间内执行精确检索
func (x *Index) Query(_ context.Context, namespace string, vector []float32, opts index.QueryOptions) ([]types.Match, error) {
	if len(vector) != x.cfg.Dimensions {
		return nil, &index.DimensionMismatchError{Got: len(vector), Want: x.cfg.Dimensions}
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = types.DefaultTopK
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]types.Match, 0, len(x.spaces[namespace]))
	for _, v := range x.spaces[namespace] {
		score := index.Score(x.cfg.Metric, vector, v.Values)
		if math.IsNaN(score) {
			continue
		}
		m := types.Match{ID: v.ID, Score: score}
		if opts.ReturnValues {
			m.Values = append([]float32(nil), v.Values...)
		}
		if opts.ReturnMetadata {
			m.Metadata = copyMetadata(v.Metadata)
		}
		matches = append(matches, m)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// GetByIDs 按 ID 读取向量, 保持入参顺序
func (x *Index) GetByIDs(_ context.Context, namespace string, ids []string) ([]types.Vector, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	vs := x.spaces[namespace]
	out := make([]types.Vector, 0, len(ids))
	for _, id := range ids {
		if v, ok := vs[id]; ok {
			out = append(out, copyVector(v))
		}
	}
	return out, nil
}

// DeleteByIDs 删除向量, 返回实际删除的数量
func (x *Index) DeleteByIDs(_ context.Context, namespace string, ids []string) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	vs, ok := x.spaces[namespace]
	if !ok {
		return 0, nil
	}
	n := 0
	for _, id := range ids {
		if _, ok := vs[id]; ok {
			delete(vs, id)
			n++
		}
	}
	if len(vs) == 0 {
		delete(x.spaces, namespace)
	}
	return n, nil
}

// Count 返回命名空间内的向量数量
func (x *Index) Count(namespace string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.spaces[namespace])
}

// Close 对内存索引无实际作用
func (x *Index) Close() error {
	return nil
}

func copyVector(v types.Vector) types.Vector {
	return types.Vector{
		ID:        v.ID,
		Namespace: v.Namespace,
		Values:    append([]float32(nil), v.Values...),
		Metadata:  copyMetadata(v.Metadata),
	}
}

func copyMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ index.Index = (*Index)(nil)
