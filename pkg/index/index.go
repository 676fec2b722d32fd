package index

import (
	"context"
	"fmt"
	"math"

	"github.com/wordflowlab/vectorhub/pkg/types"
)

// QueryOptions 相似度检索选项
type QueryOptions struct {
	TopK           int
	ReturnValues   bool
	ReturnMetadata bool
}

// Index 抽象向量索引接口。
// 上层服务只依赖该接口, 不关心具体实现(pgvector/内存等)。
// 所有读写操作都以命名空间为作用域。
type Index interface {
	// Describe 返回索引的实时配置(维度/度量/向量数量)
	Describe(ctx context.Context) (*types.IndexDescription, error)

	// Upsert 写入或覆盖向量, 返回写入的 ID
	Upsert(ctx context.Context, vectors []types.Vector) ([]string, error)

	// Query 在命名空间内检索 topK 个最相似的向量, 按 Score 降序
	Query(ctx context.Context, namespace string, vector []float32, opts QueryOptions) ([]types.Match, error)

	// GetByIDs 按 ID 读取向量, 不存在的 ID 被忽略
	GetByIDs(ctx context.Context, namespace string, ids []string) ([]types.Vector, error)

	// DeleteByIDs 删除向量, 返回实际删除的数量
	DeleteByIDs(ctx context.Context, namespace string, ids []string) (int, error)

	Close() error
}

// DimensionMismatchError 向量维度与索引配置不一致
type DimensionMismatchError struct {
	VectorID string
	Got      int
	Want     int
}

func (e *DimensionMismatchError) Error() string {
	if e.VectorID == "" {
		return fmt.Sprintf("vector dimension mismatch: got %d, index expects %d", e.Got, e.Want)
	}
	return fmt.Sprintf("vector dimension mismatch for id=%s: got %d, index expects %d", e.VectorID, e.Got, e.Want)
}

// CheckDimensions 校验一批向量的维度
func CheckDimensions(vectors []types.Vector, dim int) error {
	for _, v := range vectors {
		if len(v.Values) != dim {
			return &DimensionMismatchError{VectorID: v.ID, Got: len(v.Values), Want: dim}
		}
	}
	return nil
}

// Score 按度量计算相似度分数, 越大越相似。
// euclidean 使用 1/(1+d) 使分数落在 (0,1] 区间。
func Score(metric types.Metric, a, b []float32) float64 {
	switch metric {
	case types.MetricDotProduct:
		return dot(a, b)
	case types.MetricEuclidean:
		return 1 / (1 + euclidean(a, b))
	default:
		return cosine(a, b)
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func euclidean(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		s += d * d
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var d, na, nb float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		d += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return d / (math.Sqrt(na) * math.Sqrt(nb))
}
