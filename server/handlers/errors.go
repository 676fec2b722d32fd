package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/vectorhub/pkg/embedding"
	"github.com/wordflowlab/vectorhub/pkg/index"
	"github.com/wordflowlab/vectorhub/pkg/logging"
	"github.com/wordflowlab/vectorhub/pkg/service"
)

const dimensionSuggestion = "Either change embedding.dimensions (EMBEDDING_DIMENSIONALITY) to match the index, " +
	"or drop and recreate the vector index with the desired dimensionality."

// ok 写成功响应
func ok(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// fail 写失败响应
func fail(c *gin.Context, status int, msg, suggestion string) {
	body := gin.H{
		"success": false,
		"error":   msg,
	}
	if suggestion != "" {
		body["suggestion"] = suggestion
	}
	c.JSON(status, body)
}

// badRequest 请求绑定失败
func badRequest(c *gin.Context, err error) {
	fail(c, http.StatusBadRequest, err.Error(), "")
}

// writeError 将服务层错误映射为 HTTP 状态码
func writeError(c *gin.Context, err error) {
	var (
		verr   *service.ValidationError
		dimErr *index.DimensionMismatchError
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, verr.Error(), "")
	case errors.Is(err, embedding.ErrModelNotFound):
		fail(c, http.StatusBadRequest, "embedding model not found", "")
	case errors.As(err, &dimErr):
		fail(c, http.StatusBadRequest, dimErr.Error(), dimensionSuggestion)
	default:
		logging.Error(c.Request.Context(), "http.internal_error", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		})
		fail(c, http.StatusInternalServerError, err.Error(), "")
	}
}
