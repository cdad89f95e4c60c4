// Package httpapi serves analysis results over HTTP with gin.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"engagement-optimizer/internal/engagement"
	"engagement-optimizer/internal/metrics"
	"engagement-optimizer/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the read side the API needs.
type Store interface {
	Ping(ctx context.Context) error
	LatestAnalysis(ctx context.Context, channel string) (model.Analysis, error)
}

// Deps configures the router.
type Deps struct {
	Store          Store
	MaxUploadBytes int64
	// Options supplies the cohort size; the topic count comes from the request.
	Options engagement.Options
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", HealthHandler(d.Store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/analyze", AnalyzeHandler(d.MaxUploadBytes, d.Options))
		api.GET("/channels/:channel/latest", LatestHandler(d.Store))
	}
	return r
}

// requestLogger logs each request and records API metrics by route.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		d := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordAPIRequest(c.Request.Method, route, status, d)
		slog.Info("http: request", "method", c.Request.Method, "route", route, "status", status, "duration", d)
	}
}
