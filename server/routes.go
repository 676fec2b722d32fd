package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/vectorhub/server/handlers"
)

// registerNamespaceRoutes registers namespace routes, including query
func (s *Server) registerNamespaceRoutes(rg *gin.RouterGroup) {
	h := handlers.NewNamespaceHandler(s.svc)
	v := handlers.NewVectorHandler(s.svc)

	namespaces := rg.Group("/namespaces")
	{
		namespaces.POST("", h.Create)
		namespaces.GET("", h.List)
		namespaces.GET("/:namespace", h.Get)
		namespaces.DELETE("/:namespace", h.Delete)
		namespaces.POST("/:namespace/query", v.Query)
	}
}

// registerVectorRoutes registers vector CRUD routes
func (s *Server) registerVectorRoutes(rg *gin.RouterGroup) {
	h := handlers.NewVectorHandler(s.svc)

	vectors := rg.Group("/vectors")
	{
		vectors.GET("/:namespace", h.List)
		vectors.POST("/:namespace", h.Insert)
		vectors.GET("/:namespace/:vectorId", h.Get)
		vectors.DELETE("/:namespace/:vectorId", h.Delete)
	}
}

// registerIndexRoutes registers the index describe route
func (s *Server) registerIndexRoutes(rg *gin.RouterGroup) {
	h := handlers.NewIndexHandler(s.svc)
	rg.GET("/index", h.Describe)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error":   "route not found",
	})
}
