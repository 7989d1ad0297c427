package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

// LoggingConfig controls access logging.
type LoggingConfig struct {
	// SkipPaths are not logged.
	SkipPaths []string
	// SlowThreshold promotes slower requests to Warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips probes and the metrics scrape.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/health", "/healthz", "/readyz", "/metrics"},
		SlowThreshold: time.Second,
	}
}

// Logging writes one structured entry per request.
func Logging(logger logging.Logger, cfg LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("latency", latency),
			logging.String("client_ip", c.ClientIP()),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("request_id", GetRequestID(c)),
		}
		if code := c.Writer.Header().Get(HeaderErrorCode); code != "" {
			fields = append(fields, logging.String("error_code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		case cfg.SlowThreshold > 0 && latency > cfg.SlowThreshold:
			logger.Warn("slow HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

//Personal.AI order the ending
