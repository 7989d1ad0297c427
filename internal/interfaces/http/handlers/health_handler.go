package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/pkg/types/common"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// HealthChecker is a dependency that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

func (f CheckFunc) Name() string                    { return f.ComponentName }
func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// HealthHandler serves the service info, health and probe endpoints. Model
// readiness decides the status; dependency checks are reported alongside
// but only degrade it.
type HealthHandler struct {
	svc      prediction.Service
	checkers []HealthChecker
	version  string
	startAt  time.Time
	timeout  time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(svc prediction.Service, version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		svc:      svc,
		checkers: checkers,
		version:  version,
		startAt:  time.Now(),
		timeout:  3 * time.Second,
	}
}

// RegisterRoutes mounts /, /health, /healthz and /readyz.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, ptypes.ServiceInfo{
		Message: "QM9 molecular property prediction API",
		Version: h.version,
		Status:  h.svc.Health().Status,
		Endpoints: map[string]string{
			"health":     "GET /health",
			"properties": "GET /properties",
			"predict":    "POST /predict",
			"batch":      "POST /predict/batch",
			"recent":     "GET /predictions/recent",
			"metrics":    "GET /metrics",
		},
	})
}

// Health handles GET /health. It always answers 200.
func (h *HealthHandler) Health(c *gin.Context) {
	hs := h.svc.Health()
	resp := ptypes.HealthResponse{
		Status:          hs.Status,
		ModelLoaded:     hs.ModelLoaded,
		PropertiesCount: hs.PropertiesCount,
		ModelVersion:    hs.ModelVersion,
	}
	if len(h.checkers) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		resp.Components = h.checkAll(ctx)
		if hs.ModelLoaded {
			for _, comp := range resp.Components {
				if comp.Status != common.HealthUp {
					resp.Status = string(common.HealthDegraded)
					break
				}
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"version": h.version,
		"uptime":  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 200 once a model is loaded, else 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.svc.Health().ModelLoaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) checkAll(ctx context.Context) []common.ComponentHealth {
	out := make([]common.ComponentHealth, len(h.checkers))
	var wg sync.WaitGroup
	for i, chk := range h.checkers {
		wg.Add(1)
		go func(i int, chk HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := chk.Check(ctx)
			ch := common.ComponentHealth{Name: chk.Name(), Status: common.HealthUp, Latency: time.Since(start)}
			if err != nil {
				ch.Status = common.HealthDown
				ch.Message = err.Error()
			}
			out[i] = ch
		}(i, chk)
	}
	wg.Wait()
	return out
}

//Personal.AI order the ending
