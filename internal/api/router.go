package api

import (
	"log/slog"
	"net/http"
	"time"

	"mezzanine/app"
	"mezzanine/internal/metrics"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the session routes, the event stream, metrics and request logging
func NewRouter(games *app.GameService, hub *SSEHub, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	handler := NewSessionHandler(games)
	sessions := router.Group("/api/sessions")
	{
		sessions.POST("", handler.CreateSession)
		sessions.GET("", handler.ListSessions)
		sessions.GET("/:id", handler.GetSession)
		sessions.POST("/:id/answers", handler.Answer)
		sessions.GET("/:id/beliefs", handler.GetBeliefs)
		sessions.GET("/:id/transcript", handler.GetTranscript)
		sessions.GET("/:id/report", handler.GetReport)
		sessions.GET("/:id/workbook", handler.GetWorkbook)
		if hub != nil {
			sessions.GET("/:id/events", hub.HandleSSE)
		}
	}
	return router
}

// RequestLogger logs every request with its status and latency
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Debug("request served", attrs...)
	}
}
