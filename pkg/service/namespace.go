package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/pkg/metadata"
	"github.com/wordflowlab/vectorhub/pkg/types"
)

// NamespaceInfo 命名空间及其所在索引的配置
type NamespaceInfo struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Model          string       `json:"model"`
	Dimensionality int          `json:"dimensionality"`
	Distance       types.Metric `json:"distance"`
	IndexName      string       `json:"indexName"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// DeleteResult 删除操作结果; Deleted 表示索引实际删除的数量与预期一致
type DeleteResult struct {
	Deleted bool `json:"deleted"`
	Count   int  `json:"count"`
}

func newNamespaceInfo(ns *types.Namespace, desc *types.IndexDescription) NamespaceInfo {
	return NamespaceInfo{
		ID:             ns.ID,
		Name:           ns.Name,
		Description:    ns.Description,
		Model:          ns.Model,
		Dimensionality: desc.Dimensions,
		Distance:       desc.Metric,
		IndexName:      desc.Name,
		CreatedAt:      ns.CreatedAt,
	}
}

// CreateNamespace 创建命名空间; model 为空时使用默认模型
func (s *Service) CreateNamespace(ctx context.Context, name, model, description string) (*NamespaceInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalid("name", "namespace name is required")
	}
	// 名称原样用作路径参数, 首尾空白会导致后续查找不到
	if strings.TrimSpace(name) != name {
		return nil, invalid("name", "namespace name must not have leading or trailing whitespace")
	}
	if utf8.RuneCountInString(name) > types.MaxNamespaceNameLength {
		return nil, invalid("name", "namespace name must be at most %d characters", types.MaxNamespaceNameLength)
	}
	if model == "" {
		model = s.cfg.DefaultModel
	}

	ctx, span := s.tracer.Start(ctx, "namespace.create", trace.WithAttributes(attribute.String("namespace", name)))
	defer span.End()

	if _, err := s.meta.GetNamespace(ctx, name); err == nil {
		return nil, invalid("name", "namespace %s already exists", name)
	} else if !isMetadataNotFound(err) {
		return nil, endSpan(span, err)
	}

	ns, err := s.meta.CreateNamespace(ctx, name, model, description)
	if err != nil {
		if errors.Is(err, metadata.ErrNamespaceExists) {
			return nil, invalid("name", "namespace %s already exists", name)
		}
		return nil, endSpan(span, err)
	}

	desc, err := s.index.Describe(ctx)
	if err != nil {
		return nil, endSpan(span, err)
	}

	logging.Info(ctx, "namespace.created", map[string]interface{}{
		"namespace": ns.Name,
		"model":     ns.Model,
	})
	info := newNamespaceInfo(ns, desc)
	return &info, nil
}

// GetNamespace 读取命名空间, 同时获取索引配置
func (s *Service) GetNamespace(ctx context.Context, name string) (*NamespaceInfo, error) {
	var (
		ns   *types.Namespace
		desc *types.IndexDescription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ns, err = s.namespace(gctx, name)
		return err
	})
	g.Go(func() error {
		var err error
		desc, err = s.index.Describe(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	info := newNamespaceInfo(ns, desc)
	return &info, nil
}

// ListNamespaces 分页列出命名空间
func (s *Service) ListNamespaces(ctx context.Context, offset, limit int) ([]NamespaceInfo, error) {
	offset, limit = normalizePage(offset, limit)

	var (
		rows []types.Namespace
		desc *types.IndexDescription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.meta.ListNamespaces(gctx, offset, limit)
		return err
	})
	g.Go(func() error {
		var err error
		desc, err = s.index.Describe(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]NamespaceInfo, 0, len(rows))
	for i := range rows {
		out = append(out, newNamespaceInfo(&rows[i], desc))
	}
	return out, nil
}

// DeleteNamespace 删除命名空间及其全部向量。
// 索引删除与元数据删除并发执行, 任一失败时不做补偿。
func (s *Service) DeleteNamespace(ctx context.Context, name string) (*DeleteResult, error) {
	if _, err := s.namespace(ctx, name); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "namespace.delete", trace.WithAttributes(attribute.String("namespace", name)))
	defer span.End()

	records, err := s.meta.ListEmbeddings(ctx, name)
	if err != nil {
		return nil, endSpan(span, err)
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.VectorID)
	}

	// 两路互不取消: 一路失败时另一路仍执行完
	var (
		deleted int
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		deleted, err = s.index.DeleteByIDs(ctx, name, ids)
		return err
	})
	g.Go(func() error {
		if _, err := s.meta.DeleteEmbeddingsByNamespace(ctx, name); err != nil {
			return err
		}
		_, err := s.meta.DeleteNamespace(ctx, name)
		return err
	})
	if err := g.Wait(); err != nil {
		logging.Error(ctx, "namespace.delete_failed", map[string]interface{}{
			"namespace": name,
			"error":     err.Error(),
		})
		return nil, endSpan(span, err)
	}

	s.recorder.RecordVectorsDeleted(name, deleted)
	logging.Info(ctx, "namespace.deleted", map[string]interface{}{
		"namespace": name,
		"vectors":   deleted,
		"expected":  len(ids),
	})
	return &DeleteResult{Deleted: deleted == len(ids), Count: deleted}, nil
}

func isMetadataNotFound(err error) bool {
	return errors.Is(err, metadata.ErrNotFound)
}
