package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// MockEmbedder 一个简化的 Embedder 实现, 仅用于开发和测试。
// 同一文本总是得到相同向量, 不保证语义质量。
type MockEmbedder struct {
	// DefaultDim 请求未指定维度时使用, 默认 16
	DefaultDim int
	// Models 已知模型列表, 为空时接受任意模型
	Models []string

	mu    sync.Mutex
	calls int
}

// NewMockEmbedder 创建一个 MockEmbedder。
func NewMockEmbedder(dim int, models ...string) *MockEmbedder {
	if dim <= 0 {
		dim = 16
	}
	return &MockEmbedder{DefaultDim: dim, Models: models}
}

// Embed 将文本映射为基于 FNV 哈希的伪随机向量
func (e *MockEmbedder) Embed(_ context.Context, req Request) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if !e.knows(req.Model) {
		return nil, fmt.Errorf("model %q: %w", req.Model, ErrModelNotFound)
	}
	dim := req.Dimensions
	if dim <= 0 {
		dim = e.DefaultDim
	}

	out := make([][]float32, len(req.Inputs))
	for i, text := range req.Inputs {
		out[i] = mockVector(text, dim)
	}
	return out, nil
}

// Calls 返回 Embed 被调用的次数
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *MockEmbedder) knows(model string) bool {
	if len(e.Models) == 0 {
		return true
	}
	for _, m := range e.Models {
		if m == model {
			return true
		}
	}
	return false
}

func mockVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	for j := 0; j < dim; j++ {
		// xorshift64
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		vec[j] = float32(seed%2001)/1000.0 - 1.0
	}
	return vec
}

var _ Embedder = (*MockEmbedder)(nil)
