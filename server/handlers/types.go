package handlers

import (
	"context"

	"github.com/wordflowlab/vectorhub/pkg/service"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

// Service handlers 依赖的业务接口, 由 service.Service 实现
type Service interface {
	CreateNamespace(ctx context.Context, name, model, description string) (*service.NamespaceInfo, error)
	GetNamespace(ctx context.Context, name string) (*service.NamespaceInfo, error)
	ListNamespaces(ctx context.Context, offset, limit int) ([]service.NamespaceInfo, error)
	DeleteNamespace(ctx context.Context, name string) (*service.DeleteResult, error)
	DescribeIndex(ctx context.Context) (*types.IndexDescription, error)

	InsertVectors(ctx context.Context, namespace, model string, items []service.VectorInput) ([]service.VectorResult, error)
	GetVector(ctx context.Context, namespace, id string) (*service.VectorResult, error)
	ListVectors(ctx context.Context, namespace string, opts service.ListVectorsOptions) ([]service.VectorResult, error)
	DeleteVector(ctx context.Context, namespace, id string) (*service.DeleteResult, error)
	Query(ctx context.Context, namespace, input string, opts service.QueryOptions) ([]service.MatchResult, error)
}

// CreateNamespaceRequest POST /api/namespaces
type CreateNamespaceRequest struct {
	Name        string `json:"name" binding:"required,max=63"`
	Model       string `json:"model"`
	Description string `json:"description"`
}

// PageQuery offset/limit 分页参数
type PageQuery struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ListVectorsQuery GET /api/vectors/:namespace
type ListVectorsQuery struct {
	PageQuery
	ReturnValues   bool `form:"returnValues"`
	ReturnMetadata bool `form:"returnMetadata"`
}

// VectorBody 单条待写入文本
type VectorBody struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// InsertVectorsRequest POST /api/vectors/:namespace
type InsertVectorsRequest struct {
	Vectors []VectorBody `json:"vectors" binding:"required,min=1,dive"`
	Model   string       `json:"model"`
}

// QueryRequest POST /api/namespaces/:namespace/query
type QueryRequest struct {
	Inputs           string   `json:"inputs" binding:"required"`
	TopK             int      `json:"topK" binding:"omitempty,min=1,max=100"`
	SimilarityCutoff *float64 `json:"similarityCutoff"`
	ReturnValues     bool     `json:"returnValues"`
	ReturnMetadata   bool     `json:"returnMetadata"`
}
