package handlers

import "github.com/gin-gonic/gin"

// IndexHandler 向量索引描述
type IndexHandler struct {
	svc Service
}

// NewIndexHandler 创建 IndexHandler
func NewIndexHandler(svc Service) *IndexHandler {
	return &IndexHandler{svc: svc}
}

// Describe GET /api/index
func (h *IndexHandler) Describe(c *gin.Context) {
	desc, err := h.svc.DescribeIndex(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"index": desc})
}
