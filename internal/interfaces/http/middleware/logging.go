package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are high-frequency paths that should not be logged.
	SkipPaths []string

	// SlowThreshold is the duration above which a request is logged at
	// warn level.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig returns the logging configuration used by the API
// server unless overridden.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs one line per request with method, route, status,
// duration and the correlation ID.  When metrics is non-nil the request is
// also counted and timed.
func RequestLogging(logger logging.Logger, metrics *prometheus.AppMetrics, cfg LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		if _, skipped := skip[path]; skipped {
			return
		}

		duration := time.Since(start)
		status := c.Writer.Status()

		if metrics != nil {
			prometheus.RecordHTTPRequest(metrics, c.Request.Method, path, status, duration, int64(c.Writer.Size()))
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("request_id", GetRequestID(c)),
		}

		switch {
		case status >= 500:
			logger.Error("request failed", fields...)
		case status >= 400:
			logger.Warn("request rejected", fields...)
		case cfg.SlowThreshold > 0 && duration > cfg.SlowThreshold:
			logger.Warn("slow request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Recovery converts panics into 500 responses and logs the panic value with
// the request's correlation ID.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					logging.Any("panic", rec),
					logging.String("path", c.Request.URL.Path),
					logging.String("request_id", GetRequestID(c)),
				)
				c.AbortWithStatusJSON(500, gin.H{"code": "COMMON_001", "message": "internal server error"})
			}
		}()
		c.Next()
	}
}
