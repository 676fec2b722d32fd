package metadata

import (
	"time"

	"github.com/wordflowlab/vectorhub/pkg/types"
)

// NamespaceModel 命名空间数据库模型
// 对应表: namespaces
type NamespaceModel struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name        string    `gorm:"type:varchar(63);not null;uniqueIndex:idx_namespace_name"`
	Description string    `gorm:"type:text;not null;default:''"`
	Model       string    `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `gorm:"not null;index:idx_namespace_created"`
}

// TableName 指定表名
func (NamespaceModel) TableName() string {
	return "namespaces"
}

// EmbeddingModel 源文本记录数据库模型
// 对应表: embeddings
// (namespace, vector_id) 唯一, 与向量索引中的条目一一对应
type EmbeddingModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Source    string    `gorm:"type:text;not null"`
	Namespace string    `gorm:"type:varchar(63);not null;uniqueIndex:idx_embedding_vector,priority:1"`
	VectorID  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_embedding_vector,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (EmbeddingModel) TableName() string {
	return "embeddings"
}

func (m *NamespaceModel) toNamespace() *types.Namespace {
	return &types.Namespace{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Model:       m.Model,
		CreatedAt:   m.CreatedAt,
	}
}

func (m *EmbeddingModel) toRecord() types.EmbeddingRecord {
	return types.EmbeddingRecord{
		ID:        m.ID,
		Source:    m.Source,
		Namespace: m.Namespace,
		VectorID:  m.VectorID,
		CreatedAt: m.CreatedAt,
	}
}
