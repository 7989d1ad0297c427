package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics groups every metric family the service exports.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Prediction pipeline
	PredictionsTotal      CounterVec   // outcome
	PredictionStageTime   HistogramVec // stage: fingerprint|scale|forward|inverse|confidence|total
	ConfidenceLabelsTotal CounterVec   // scope: overall|property, label
	NumericAnomaliesTotal CounterVec   // property
	BatchSize             HistogramVec

	// Artifacts
	ModelReady       GaugeVec
	ArtifactReloads  CounterVec // result
	ArtifactLoadTime HistogramVec
	ModelInputWidth  GaugeVec
	ModelOutputWidth GaugeVec

	// Infrastructure
	CacheRequestsTotal CounterVec // tier, result
	HistoryWritesTotal CounterVec // result
	JobsProcessedTotal CounterVec // result
}

var (
	DefaultHTTPDurationBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultStageDurationBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1}
	DefaultLoadDurationBuckets  = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultBatchSizeBuckets     = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256}
)

// NewAppMetrics registers all families on collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:   c.RegisterCounter("http_requests_total", "HTTP requests by method, route and status.", "method", "route", "status"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds", "HTTP request latency.", DefaultHTTPDurationBuckets, "method", "route"),
		HTTPActiveRequests:  c.RegisterGauge("http_active_requests", "In-flight HTTP requests.", "route"),

		PredictionsTotal:      c.RegisterCounter("predictions_total", "Predictions by outcome.", "outcome"),
		PredictionStageTime:   c.RegisterHistogram("prediction_stage_duration_seconds", "Time spent per pipeline stage.", DefaultStageDurationBuckets, "stage"),
		ConfidenceLabelsTotal: c.RegisterCounter("confidence_labels_total", "Confidence labels emitted.", "scope", "label"),
		NumericAnomaliesTotal: c.RegisterCounter("numeric_anomalies_total", "NaN or infinite predicted values.", "property"),
		BatchSize:             c.RegisterHistogram("prediction_batch_size", "Molecules per batch request.", DefaultBatchSizeBuckets, "source"),

		ModelReady:       c.RegisterGauge("model_ready", "1 when an inference context is loaded.", "model"),
		ArtifactReloads:  c.RegisterCounter("artifact_reloads_total", "Artifact reload attempts.", "result"),
		ArtifactLoadTime: c.RegisterHistogram("artifact_load_duration_seconds", "Time to build an inference context.", DefaultLoadDurationBuckets, "source"),
		ModelInputWidth:  c.RegisterGauge("model_input_width", "Input width of the loaded checkpoint.", "model"),
		ModelOutputWidth: c.RegisterGauge("model_output_width", "Output width of the loaded checkpoint.", "model"),

		CacheRequestsTotal: c.RegisterCounter("cache_requests_total", "Prediction cache lookups.", "tier", "result"),
		HistoryWritesTotal: c.RegisterCounter("history_writes_total", "Prediction history writes.", "result"),
		JobsProcessedTotal: c.RegisterCounter("batch_jobs_processed_total", "Kafka batch jobs processed.", "result"),
	}
}

// NewNopAppMetrics returns metrics that record nothing; used by tests and
// the CLI.
func NewNopAppMetrics() *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal:     noopCounterVec{},
		HTTPRequestDuration:   noopHistogramVec{},
		HTTPActiveRequests:    noopGaugeVec{},
		PredictionsTotal:      noopCounterVec{},
		PredictionStageTime:   noopHistogramVec{},
		ConfidenceLabelsTotal: noopCounterVec{},
		NumericAnomaliesTotal: noopCounterVec{},
		BatchSize:             noopHistogramVec{},
		ModelReady:            noopGaugeVec{},
		ArtifactReloads:       noopCounterVec{},
		ArtifactLoadTime:      noopHistogramVec{},
		ModelInputWidth:       noopGaugeVec{},
		ModelOutputWidth:      noopGaugeVec{},
		CacheRequestsTotal:    noopCounterVec{},
		HistoryWritesTotal:    noopCounterVec{},
		JobsProcessedTotal:    noopCounterVec{},
	}
}

func RecordHTTPRequest(m *AppMetrics, method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordStage(m *AppMetrics, stage string, d time.Duration) {
	m.PredictionStageTime.WithLabelValues(stage).Observe(d.Seconds())
}

func RecordPrediction(m *AppMetrics, outcome string) {
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
}

func RecordCacheAccess(m *AppMetrics, tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(tier, result).Inc()
}

// RecordModelLoaded publishes the widths of a freshly loaded model.
func RecordModelLoaded(m *AppMetrics, model string, inputWidth, outputWidth int) {
	m.ModelReady.WithLabelValues(model).Set(1)
	m.ModelInputWidth.WithLabelValues(model).Set(float64(inputWidth))
	m.ModelOutputWidth.WithLabelValues(model).Set(float64(outputWidth))
}

//Personal.AI order the ending
