package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/MolProp-Intelligence/internal/domain/molecule"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	pt "github.com/turtacn/MolProp-Intelligence/internal/intelligence/prop_transformer"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// PropertyPrediction is one labelled output value.
type PropertyPrediction = property.Prediction

// Result is a successful prediction.
type Result struct {
	SMILES          string               `json:"smiles"`
	Molecule        *molecule.Molecule   `json:"molecule"`
	Predictions     []PropertyPrediction `json:"predictions"`
	ModelConfidence ConfidenceLabel      `json:"model_confidence"`
	ModelVersion    string               `json:"model_version"`
	Cached          bool                 `json:"-"`

	nonFinite bool
}

// BatchItem pairs a batch input with its outcome. Exactly one of Result and
// Err is set.
type BatchItem struct {
	SMILES string
	Result *Result
	Err    error
}

// Health summarizes readiness.
type Health struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	PropertiesCount int    `json:"properties_count"`
	ModelVersion    string `json:"model_version,omitempty"`
}

// Service is the prediction use-case boundary shared by HTTP, CLI and the
// batch worker.
type Service interface {
	Predict(ctx context.Context, smiles string) (*Result, error)
	PredictBatch(ctx context.Context, smiles []string) ([]BatchItem, error)
	Properties() ([]property.Property, error)
	Health() Health
	Reload(ctx context.Context) error
	Current() *InferenceContext
}

// Loader builds a fresh inference context, typically LoadContext bound to an
// artifact source.
type Loader func(ctx context.Context) (*InferenceContext, error)

// ResultCache stores encoded results by key. Implementations treat their own
// failures as misses.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Engine implements Service. The current context is published through an
// atomic pointer: nil means not ready, and a reload swaps in a fully built
// replacement.
type Engine struct {
	current atomic.Pointer[InferenceContext]
	loader  Loader

	cache   ResultCache
	history property.RecordRepository
	flight  singleflight.Group

	maxBatch         int
	batchConcurrency int
	historyTimeout   time.Duration

	metrics *prom.AppMetrics
	logger  logging.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithCache(c ResultCache) EngineOption { return func(e *Engine) { e.cache = c } }

func WithHistory(r property.RecordRepository, timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.history = r
		if timeout > 0 {
			e.historyTimeout = timeout
		}
	}
}

func WithBatchLimits(maxBatch, concurrency int) EngineOption {
	return func(e *Engine) {
		if maxBatch > 0 {
			e.maxBatch = maxBatch
		}
		if concurrency > 0 {
			e.batchConcurrency = concurrency
		}
	}
}

func WithMetrics(m *prom.AppMetrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine that is not ready until Reload or Install
// succeeds. loader may be nil when contexts are only installed directly.
func NewEngine(loader Loader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader:           loader,
		maxBatch:         64,
		batchConcurrency: 4,
		historyTimeout:   2 * time.Second,
		metrics:          prom.NewNopAppMetrics(),
		logger:           logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Current returns the published context or nil.
func (e *Engine) Current() *InferenceContext { return e.current.Load() }

// Install publishes ictx and logs the property table.
func (e *Engine) Install(ictx *InferenceContext) {
	prev := e.current.Swap(ictx)
	if ictx == nil {
		return
	}
	d := ictx.Descriptor()
	prom.RecordModelLoaded(e.metrics, ictx.ModelName, d.InputWidth, d.OutputWidth)
	e.logger.Info("inference context installed",
		logging.String("model", ictx.ModelName),
		logging.String("version", ictx.Version),
		logging.String("architecture", d.String()),
		logging.Bool("replaced", prev != nil))
	for i, p := range ictx.Catalog.All() {
		e.logger.Info("property",
			logging.Int("index", i),
			logging.String("code", p.Code),
			logging.String("name", p.Name),
			logging.String("unit", p.Unit))
	}
}

// Reload builds a new context with the loader and swaps it in. On failure
// the current context stays in place.
func (e *Engine) Reload(ctx context.Context) error {
	if e.loader == nil {
		return errors.New(errors.ErrCodeInternal, "no artifact loader configured")
	}
	start := time.Now()
	ictx, err := e.loader(ctx)
	e.metrics.ArtifactLoadTime.WithLabelValues("reload").Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.ArtifactReloads.WithLabelValues("failure").Inc()
		e.logger.Error("artifact load failed; keeping current context",
			logging.Err(err),
			logging.Bool("ready", e.Current() != nil))
		return err
	}
	e.metrics.ArtifactReloads.WithLabelValues("success").Inc()
	e.Install(ictx)
	return nil
}

// Health reports readiness.
func (e *Engine) Health() Health {
	ictx := e.Current()
	if ictx == nil {
		return Health{Status: "unhealthy"}
	}
	return Health{
		Status:          "healthy",
		ModelLoaded:     true,
		PropertiesCount: ictx.Catalog.Len(),
		ModelVersion:    ictx.Version,
	}
}

// Properties lists the catalog in model output order.
func (e *Engine) Properties() ([]property.Property, error) {
	ictx := e.Current()
	if ictx == nil {
		return nil, notLoaded()
	}
	return ictx.Catalog.All(), nil
}

func notLoaded() error {
	return errors.New(errors.ErrCodeModelNotLoaded, MessageModelNotLoaded)
}

// Predict runs the full pipeline for one structure.
func (e *Engine) Predict(ctx context.Context, smiles string) (*Result, error) {
	start := time.Now()
	ictx := e.Current()
	if ictx == nil {
		prom.RecordPrediction(e.metrics, "not_loaded")
		return nil, notLoaded()
	}

	res, err := e.predictCached(ctx, ictx, smiles)
	elapsed := time.Since(start)
	prom.RecordStage(e.metrics, "total", elapsed)
	if err != nil {
		prom.RecordPrediction(e.metrics, outcome(err))
		e.logger.Debug("prediction failed", logging.String("smiles", smiles), logging.Err(err))
	} else {
		prom.RecordPrediction(e.metrics, "success")
		e.metrics.ConfidenceLabelsTotal.WithLabelValues("overall", string(res.ModelConfidence)).Inc()
	}
	e.recordHistory(smiles, ictx.Version, res, err, elapsed)
	return res, err
}

func outcome(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidStructure:
		return "invalid_structure"
	case errors.ErrCodeModelNotLoaded:
		return "not_loaded"
	default:
		return "error"
	}
}

func cacheKey(ictx *InferenceContext, smiles string) string {
	return ictx.Version + "|" + smiles
}

// predictCached consults the cache, coalescing concurrent misses for the
// same key. Results with non-finite values are never cached.
func (e *Engine) predictCached(ctx context.Context, ictx *InferenceContext, smiles string) (*Result, error) {
	if e.cache == nil {
		return e.run(ictx, smiles)
	}
	key := cacheKey(ictx, smiles)
	if data, ok := e.cache.Get(ctx, key); ok {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			res.Cached = true
			return &res, nil
		}
		e.logger.Warn("discarding undecodable cache entry", logging.String("key", key))
	}

	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		res, err := e.run(ictx, smiles)
		if err != nil {
			return nil, err
		}
		if !res.nonFinite {
			if data, err := json.Marshal(res); err == nil {
				e.cache.Set(ctx, key, data)
			}
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	// each caller gets its own copy of the shared result
	shared := v.(*Result)
	cp := *shared
	cp.Predictions = append([]PropertyPrediction(nil), shared.Predictions...)
	return &cp, nil
}

// run is the uncached pipeline. It takes no locks: everything it reads
// hangs off the immutable context.
func (e *Engine) run(ictx *InferenceContext, smiles string) (*Result, error) {
	t := time.Now()
	fp, mol, err := ictx.Extractor.Extract(smiles)
	if err != nil {
		return nil, err
	}
	t = e.stage("fingerprint", t)

	x, err := ictx.FeatureScaler.Transform(fp.Float64s())
	if err != nil {
		return nil, err
	}
	t = e.stage("scale", t)

	raw, err := ictx.Model.Forward(x)
	if err != nil {
		return nil, err
	}
	t = e.stage("forward", t)

	y, err := ictx.TargetScaler.InverseTransform(raw)
	if err != nil {
		return nil, err
	}
	t = e.stage("inverse", t)

	codes := ictx.Catalog.Codes()
	if len(y) != len(codes) {
		return nil, errors.DimensionMismatch("prediction", len(codes), len(y))
	}
	overall, per := EstimateConfidence(codes, y)

	preds := make([]PropertyPrediction, len(y))
	for i, v := range y {
		p := ictx.Catalog.At(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			e.metrics.NumericAnomaliesTotal.WithLabelValues(p.Code).Inc()
			e.logger.Warn("non-finite prediction",
				logging.String("smiles", smiles),
				logging.String("property", p.Code),
				logging.String("value", fmt.Sprint(v)))
		}
		preds[i] = PropertyPrediction{
			Code:       p.Code,
			Name:       p.Name,
			Value:      v,
			Unit:       p.Unit,
			Confidence: string(per[i]),
		}
	}
	e.stage("confidence", t)

	return &Result{
		SMILES:          smiles,
		Molecule:        mol,
		Predictions:     preds,
		ModelConfidence: overall,
		ModelVersion:    ictx.Version,
		nonFinite:       pt.HasNonFinite(y),
	}, nil
}

func (e *Engine) stage(name string, since time.Time) time.Time {
	now := time.Now()
	prom.RecordStage(e.metrics, name, now.Sub(since))
	return now
}

// PredictBatch predicts every input concurrently and returns items in input
// order. Per-item failures are reported in the item; the error return is
// reserved for an oversized batch or a cancelled context.
func (e *Engine) PredictBatch(ctx context.Context, smiles []string) ([]BatchItem, error) {
	if len(smiles) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "batch is empty")
	}
	if len(smiles) > e.maxBatch {
		return nil, errors.Newf(errors.ErrCodeValidation, "batch of %d exceeds the limit of %d", len(smiles), e.maxBatch)
	}
	e.metrics.BatchSize.WithLabelValues("api").Observe(float64(len(smiles)))

	items := make([]BatchItem, len(smiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchConcurrency)
	for i, s := range smiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.Predict(gctx, s)
			items[i] = BatchItem{SMILES: s, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "batch prediction cancelled")
	}
	return items, nil
}

// recordHistory writes a best-effort history entry in the background.
func (e *Engine) recordHistory(smiles, version string, res *Result, err error, latency time.Duration) {
	if e.history == nil {
		return
	}
	rec := property.NewRecord(smiles)
	rec.ModelVersion = version
	rec.Latency = latency
	if err != nil {
		rec.Error = ErrorMessage(err)
	} else {
		rec.Success = true
		rec.Formula = res.Molecule.Formula
		rec.ModelConfidence = string(res.ModelConfidence)
		rec.Predictions = res.Predictions
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.historyTimeout)
		defer cancel()
		if err := e.history.Save(ctx, rec); err != nil {
			e.metrics.HistoryWritesTotal.WithLabelValues("failure").Inc()
			e.logger.Warn("history write failed", logging.Err(err), logging.String("id", rec.ID.String()))
			return
		}
		e.metrics.HistoryWritesTotal.WithLabelValues("success").Inc()
	}()
}

// Recent lists the newest history records.
func (e *Engine) Recent(ctx context.Context, limit int) ([]*property.Record, error) {
	if e.history == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "prediction history is disabled")
	}
	return e.history.Recent(ctx, limit)
}

var _ Service = (*Engine)(nil)

//Personal.AI order the ending
