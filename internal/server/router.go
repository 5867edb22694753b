// Package server exposes the batch tracker over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/tracker"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config  *config.Config
	Tracker tracker.Tracker
	Logger  logger.Logger
}

type handler struct {
	cfg     *config.Config
	tracker tracker.Tracker
	logger  logger.Logger
}

// NewRouter builds the HTTP router for the API and the optional static UI.
func NewRouter(d Deps) *gin.Engine {
	h := &handler{cfg: d.Config, tracker: d.Tracker, logger: d.Logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  d.Config.Server.AllowOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/models", h.Models)
	api.POST("/batches", h.CreateBatch)
	api.GET("/batches", h.ListBatches)
	api.GET("/batches/:id/progress", h.GetProgress)
	api.GET("/batches/:id/results", h.GetResults)
	api.GET("/batches/:id/download", h.Download)
	api.POST("/batches/:id/cancel", h.CancelBatch)
	api.DELETE("/batches/:id", h.DeleteBatch)

	if dir := d.Config.Server.StaticDir; dir != "" {
		router.Static("/ui", dir)
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/ui/")
		})
	}

	return router
}

func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ctx := c.Request.Context()
		if status >= http.StatusInternalServerError {
			log.Error(ctx, "%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
			return
		}
		log.Debug(ctx, "%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
