// Package http assembles the gin engine and the HTTP server of the
// prediction API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the dependencies of the route tree.
type RouterConfig struct {
	Mode              string
	PredictionHandler *handlers.PredictionHandler
	HealthHandler     *handlers.HealthHandler

	AllowedOrigins []string
	MaxBodySize    int64
	RateLimiter    *middleware.RateLimiter

	Logger         logging.Logger
	Metrics        *prom.AppMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine: recovery, request IDs, metrics, access
// logging, CORS, body limit and rate limiting, then the routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prom.NewNopAppMetrics()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		cfg.Logger.Error("panic recovered",
			logging.Any("panic", recovered),
			logging.String("path", c.Request.URL.Path),
			logging.String("request_id", middleware.GetRequestID(c)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Logging(cfg.Logger, middleware.DefaultLoggingConfig()))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware())
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.PredictionHandler != nil {
		cfg.PredictionHandler.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}

//Personal.AI order the ending
