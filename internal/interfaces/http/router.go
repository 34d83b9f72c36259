// Package http assembles the API server: route tree, middleware chain and
// the server lifecycle.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/DisruptMetrics/internal/interfaces/http/handlers"
	"github.com/turtacn/DisruptMetrics/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil handlers leave their routes unregistered so partial servers
// (for example a worker's health endpoint) reuse the same construction.
type RouterConfig struct {
	PanelHandler  *handlers.PanelHandler
	RunHandler    *handlers.RunHandler
	HealthHandler *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string

	Mode string
	CORS *middleware.CORSConfig
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger, cfg.Metrics, middleware.DefaultLoggingConfig()))

	corsCfg := middleware.DefaultCORSConfig()
	if cfg.CORS != nil {
		corsCfg = *cfg.CORS
	}
	r.Use(middleware.CORS(corsCfg))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	{
		if cfg.PanelHandler != nil {
			api.GET("/panel", cfg.PanelHandler.List)
			api.GET("/companies", cfg.PanelHandler.Companies)
			api.GET("/companies/:name/scores", cfg.PanelHandler.CompanyScores)
		}
		if cfg.RunHandler != nil {
			api.GET("/runs/latest", cfg.RunHandler.Latest)
			api.POST("/companies/:name/recompute", cfg.RunHandler.Recompute)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "COMMON_005", "message": "route not found"})
	})

	return r
}
