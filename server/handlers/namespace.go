package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NamespaceHandler 命名空间相关请求
type NamespaceHandler struct {
	svc Service
}

// NewNamespaceHandler 创建 NamespaceHandler
func NewNamespaceHandler(svc Service) *NamespaceHandler {
	return &NamespaceHandler{svc: svc}
}

// Create POST /api/namespaces
func (h *NamespaceHandler) Create(c *gin.Context) {
	var req CreateNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ns, err := h.svc.CreateNamespace(c.Request.Context(), req.Name, req.Model, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"result":  gin.H{"namespace": ns},
	})
}

// List GET /api/namespaces
func (h *NamespaceHandler) List(c *gin.Context) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	namespaces, err := h.svc.ListNamespaces(c.Request.Context(), q.Offset, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"namespaces": namespaces})
}

// Get GET /api/namespaces/:namespace
func (h *NamespaceHandler) Get(c *gin.Context) {
	ns, err := h.svc.GetNamespace(c.Request.Context(), c.Param("namespace"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"namespace": ns})
}

// Delete DELETE /api/namespaces/:namespace
// success 反映索引是否删除了预期数量的向量
func (h *NamespaceHandler) Delete(c *gin.Context) {
	res, err := h.svc.DeleteNamespace(c.Request.Context(), c.Param("namespace"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": res.Deleted,
		"result":  res,
	})
}
