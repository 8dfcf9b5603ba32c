package server

import (
	"net/http"

	"github.com/Luismorlan/contentmux/server/middlewares"
	"github.com/gin-gonic/gin"
)

// NewRouter registers every route on a fresh gin engine. Extra middlewares,
// such as tracing and CORS, run before the actor check.
func NewRouter(h *Handlers, mws ...gin.HandlerFunc) *gin.Engine {
	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(mws...)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authorized := router.Group("/", middlewares.Actor())
	authorized.POST("/reactions", h.CreateReaction)
	authorized.DELETE("/reactions", h.DeleteReaction)
	authorized.POST("/contents/:id/publish", h.PublishContent)
	authorized.PUT("/contents/:id", h.UpdateContent)
	authorized.DELETE("/contents/:id", h.DeleteContent)
	authorized.POST("/videos/:id/processed", h.VideoProcessed)
	authorized.POST("/series/:id/items", h.AddSeriesItems)
	authorized.DELETE("/series/:id/items", h.RemoveSeriesItems)
	authorized.PUT("/series/:id/items/order", h.ReorderSeriesItems)
	authorized.GET("/groups/:id/feed", h.GroupFeed)

	return router
}
