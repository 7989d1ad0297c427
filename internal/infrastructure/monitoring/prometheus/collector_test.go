package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
}

func TestNewMetricsCollector_RuntimeCollectors(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "rt", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "go_goroutines")
}

func TestRegisterCounter_ExportsValue(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("hits_total", "hits", "route")
	vec.WithLabelValues("/predict").Inc()
	vec.WithLabelValues("/predict").Add(2)

	assert.Contains(t, scrape(t, c), `test_unit_hits_total{route="/predict"} 3`)
}

func TestRegisterCounter_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("dup_total", "dup", "x")
	b := c.RegisterCounter("dup_total", "dup", "x")
	a.WithLabelValues("1").Inc()
	b.WithLabelValues("1").Inc()
	assert.Contains(t, scrape(t, c), `test_unit_dup_total{x="1"} 2`)
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("shared", "as counter")
	g := c.RegisterGauge("shared", "as gauge")
	_, isNoop := g.(noopGaugeVec)
	assert.True(t, isNoop)
	assert.NotPanics(t, func() { g.WithLabelValues().Set(4) })
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterGauge("ready", "ready", "model").WithLabelValues("qm9").Set(1)
	h := c.RegisterHistogram("latency_seconds", "latency", nil, "stage")
	h.WithLabelValues("forward").Observe(0.002)

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_ready{model="qm9"} 1`)
	assert.Contains(t, out, `test_unit_latency_seconds_count{stage="forward"} 1`)
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "t", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.ObserveDuration(), time.Millisecond)
	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
