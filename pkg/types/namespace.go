package types

import "time"

const (
	// MaxNamespaceNameLength 命名空间名称的最大长度
	MaxNamespaceNameLength = 63

	DefaultListLimit = 10
	MaxListLimit     = 100
	DefaultTopK      = 5
	MaxTopK          = 100
)

// Namespace 一组绑定到同一个 embedding 模型的向量集合
type Namespace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmbeddingRecord 元数据库中的源文本记录, 通过 (Namespace, VectorID) 与索引中的向量关联
type EmbeddingRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Namespace string    `json:"namespace"`
	VectorID  string    `json:"vectorId"`
	CreatedAt time.Time `json:"createdAt"`
}
