package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrModelNotFound embedding 服务不认识请求的模型
var ErrModelNotFound = errors.New("embedding model not found")

// Request 一次批量 embedding 请求
type Request struct {
	Model      string
	Dimensions int // 0 表示使用模型默认维度
	Inputs     []string
}

// Embedder 为文本生成向量的抽象接口。
// 具体实现可以基于 OpenAI 兼容接口、本地模型或外部 HTTP 服务。
// 返回的向量与 Inputs 一一对应。
type Embedder interface {
	Embed(ctx context.Context, req Request) ([][]float32, error)
}

// APIError embedding 服务返回的非 2xx 错误
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("embeddings API error: status %d", e.Status)
	}
	return fmt.Sprintf("embeddings API error: status %d: %s", e.Status, e.Message)
}
