package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// HeaderErrorCode carries the error code of a failed prediction whose body
// is still served with 200.
const HeaderErrorCode = "X-Error-Code"

// Metrics records request counts, latency and in-flight requests. Routes
// are labelled by their pattern; unmatched paths share one label.
func Metrics(m *prom.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		active := m.HTTPActiveRequests.WithLabelValues(route)
		active.Inc()
		start := time.Now()
		c.Next()
		active.Dec()
		prom.RecordHTTPRequest(m, c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
