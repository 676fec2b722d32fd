package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/vectorhub/pkg/service"
)

// VectorHandler 向量相关请求
type VectorHandler struct {
	svc Service
}

// NewVectorHandler 创建 VectorHandler
func NewVectorHandler(svc Service) *VectorHandler {
	return &VectorHandler{svc: svc}
}

// Insert POST /api/vectors/:namespace
func (h *VectorHandler) Insert(c *gin.Context) {
	var req InsertVectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	items := make([]service.VectorInput, len(req.Vectors))
	for i, v := range req.Vectors {
		items[i] = service.VectorInput{ID: v.ID, Text: v.Text, Metadata: v.Metadata}
	}

	vectors, err := h.svc.InsertVectors(c.Request.Context(), c.Param("namespace"), req.Model, items)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"result":  gin.H{"vectors": vectors},
	})
}

// List GET /api/vectors/:namespace
func (h *VectorHandler) List(c *gin.Context) {
	var q ListVectorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	vectors, err := h.svc.ListVectors(c.Request.Context(), c.Param("namespace"), service.ListVectorsOptions{
		Offset:         q.Offset,
		Limit:          q.Limit,
		ReturnValues:   q.ReturnValues,
		ReturnMetadata: q.ReturnMetadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"vectors": vectors})
}

// Get GET /api/vectors/:namespace/:vectorId
func (h *VectorHandler) Get(c *gin.Context) {
	v, err := h.svc.GetVector(c.Request.Context(), c.Param("namespace"), c.Param("vectorId"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"vector": v})
}

// Delete DELETE /api/vectors/:namespace/:vectorId
func (h *VectorHandler) Delete(c *gin.Context) {
	res, err := h.svc.DeleteVector(c.Request.Context(), c.Param("namespace"), c.Param("vectorId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": res.Deleted,
		"result":  res,
	})
}

// Query POST /api/namespaces/:namespace/query
func (h *VectorHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	matches, err := h.svc.Query(c.Request.Context(), c.Param("namespace"), req.Inputs, service.QueryOptions{
		TopK:             req.TopK,
		SimilarityCutoff: req.SimilarityCutoff,
		ReturnValues:     req.ReturnValues,
		ReturnMetadata:   req.ReturnMetadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, gin.H{"matches": matches})
}
