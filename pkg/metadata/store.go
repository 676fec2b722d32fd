package metadata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wordflowlab/vectorhub/pkg/types"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("metadata: record not found")
	// ErrNamespaceExists 命名空间名称已被占用
	ErrNamespaceExists = errors.New("metadata: namespace already exists")
)

// Store 元数据库的薄封装: 只发出固定的参数化语句, 不包含业务逻辑
type Store struct {
	db     *gorm.DB
	driver string
}

// Config 元数据库配置
type Config struct {
	// Driver 数据库驱动: "sqlite" (默认)、"postgres" 或 "mysql"
	Driver string

	// DSN 数据库连接字符串, 例如:
	//   sqlite:   "file:vectorhub.db?_pragma=busy_timeout(5000)" 或 ":memory:"
	//   postgres: "host=localhost user=postgres password=postgres dbname=vectorhub port=5432 sslmode=disable"
	//   mysql:    "user:pass@tcp(127.0.0.1:3306)/vectorhub?parseTime=true"
	DSN string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// LogLevel GORM 日志级别
	LogLevel logger.LogLevel

	// AutoMigrate 是否自动迁移表结构
	AutoMigrate bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Driver:          "sqlite",
		DSN:             ".data/vectorhub.db",
		MaxIdleConns:    5,
		MaxOpenConns:    25,
		ConnMaxLifetime: time.Hour,
		LogLevel:        logger.Warn,
		AutoMigrate:     true,
	}
}

// ParseLogLevel 将配置中的字符串转换为 GORM 日志级别
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open 根据配置打开元数据库
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required")
	}

	driver := strings.ToLower(cfg.Driver)
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		driver = "sqlite"
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "postgresql":
		driver = "postgres"
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// 内存 SQLite 的每个连接都是独立的数据库, 必须固定为单连接且不回收
	if driver == "sqlite" && isMemoryDSN(cfg.DSN) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&NamespaceModel{}, &EmbeddingModel{}); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	return &Store{db: db, driver: driver}, nil
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// ensureSQLiteDir 为文件型 DSN 创建父目录
func ensureSQLiteDir(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if path == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite directory %s: %w", dir, err)
	}
	return nil
}

// Driver 返回实际使用的驱动名
func (s *Store) Driver() string {
	return s.driver
}

// CreateNamespace 创建命名空间
func (s *Store) CreateNamespace(ctx context.Context, name, model, description string) (*types.Namespace, error) {
	m := &NamespaceModel{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Model:       model,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNamespaceExists
		}
		return nil, fmt.Errorf("create namespace: %w", err)
	}
	return m.toNamespace(), nil
}

// GetNamespace 按名称读取命名空间
func (s *Store) GetNamespace(ctx context.Context, name string) (*types.Namespace, error) {
	var m NamespaceModel
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get namespace: %w", err)
	}
	return m.toNamespace(), nil
}

// ListNamespaces 分页列出命名空间
func (s *Store) ListNamespaces(ctx context.Context, offset, limit int) ([]types.Namespace, error) {
	var models []NamespaceModel
	if err := s.db.WithContext(ctx).
		Order("created_at ASC").Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	out := make([]types.Namespace, 0, len(models))
	for i := range models {
		out = append(out, *models[i].toNamespace())
	}
	return out, nil
}

// DeleteNamespace 按名称删除命名空间行, 返回删除的行数
func (s *Store) DeleteNamespace(ctx context.Context, name string) (int64, error) {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&NamespaceModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete namespace: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListEmbeddings 列出命名空间下的全部源文本记录
func (s *Store) ListEmbeddings(ctx context.Context, namespace string) ([]types.EmbeddingRecord, error) {
	var models []EmbeddingModel
	if err := s.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Order("created_at ASC").Order("vector_id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	return toRecords(models), nil
}

// ListEmbeddingsPaginated 分页列出命名空间下的源文本记录
func (s *Store) ListEmbeddingsPaginated(ctx context.Context, namespace string, offset, limit int) ([]types.EmbeddingRecord, error) {
	var models []EmbeddingModel
	if err := s.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Order("created_at ASC").Order("vector_id ASC").
		Offset(offset).Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	return toRecords(models), nil
}

// ListEmbeddingsByVectorIDs 按向量 ID 批量读取源文本记录
func (s *Store) ListEmbeddingsByVectorIDs(ctx context.Context, namespace string, vectorIDs []string) ([]types.EmbeddingRecord, error) {
	if len(vectorIDs) == 0 {
		return nil, nil
	}
	var models []EmbeddingModel
	if err := s.db.WithContext(ctx).
		Where("namespace = ? AND vector_id IN ?", namespace, vectorIDs).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list embeddings by vector ids: %w", err)
	}
	return toRecords(models), nil
}

// GetEmbedding 读取单条源文本记录
func (s *Store) GetEmbedding(ctx context.Context, namespace, vectorID string) (*types.EmbeddingRecord, error) {
	var m EmbeddingModel
	if err := s.db.WithContext(ctx).
		Where("namespace = ? AND vector_id = ?", namespace, vectorID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	rec := m.toRecord()
	return &rec, nil
}

// UpsertEmbeddings 批量写入源文本记录; 同一 (namespace, vector_id) 再次写入时替换 source
func (s *Store) UpsertEmbeddings(ctx context.Context, records []types.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]EmbeddingModel, 0, len(records))
	for _, r := range records {
		models = append(models, EmbeddingModel{
			ID:        uuid.New().String(),
			Source:    r.Source,
			Namespace: r.Namespace,
			VectorID:  r.VectorID,
			CreatedAt: now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "vector_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"source"}),
		}).Create(&models).Error
		if err != nil {
			return fmt.Errorf("upsert embeddings: %w", err)
		}
		return nil
	})
}

// DeleteEmbedding 删除单条源文本记录, 返回删除的行数
func (s *Store) DeleteEmbedding(ctx context.Context, namespace, vectorID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("namespace = ? AND vector_id = ?", namespace, vectorID).
		Delete(&EmbeddingModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete embedding: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteEmbeddingsByNamespace 删除命名空间下的全部源文本记录
func (s *Store) DeleteEmbeddingsByNamespace(ctx context.Context, namespace string) (int64, error) {
	res := s.db.WithContext(ctx).Where("namespace = ?", namespace).Delete(&EmbeddingModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete embeddings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ping 检查数据库连接
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecords(models []EmbeddingModel) []types.EmbeddingRecord {
	out := make([]types.EmbeddingRecord, 0, len(models))
	for i := range models {
		out = append(out, models[i].toRecord())
	}
	return out
}
