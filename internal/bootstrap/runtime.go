// Package bootstrap wires the prediction engine to its infrastructure:
// artifact source, metrics, the tiered result cache and the history store.
// The API server, the batch worker and the CLI all start from here.
package bootstrap

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/cache"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/storage/artifact"
)

// Check is a named dependency probe. It satisfies the HTTP health
// handler's checker interface.
type Check struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

func (c Check) Name() string                    { return c.ComponentName }
func (c Check) Check(ctx context.Context) error { return c.Fn(ctx) }

// Options select which optional tiers Build attaches.
type Options struct {
	// Metrics, when nil, are built from cfg.Metrics.
	Metrics *prom.AppMetrics
	// Source overrides the configured artifact source.
	Source artifact.Source
	// DisableCache and DisableHistory skip those tiers regardless of config.
	DisableCache   bool
	DisableHistory bool
	// BatchConcurrency overrides cfg.Inference.BatchConcurrency when positive.
	BatchConcurrency int
}

// Runtime owns everything Build opened.
type Runtime struct {
	Config    *config.Config
	Logger    logging.Logger
	Metrics   *prom.AppMetrics
	Collector prom.MetricsCollector
	Source    artifact.Source
	Engine    *prediction.Engine
	Cache     *cache.Tiered
	History   property.RecordRepository
	Checks    []Check

	closers []func() error
}

// NewMetrics builds the collector and the metric families. When metrics are
// disabled it returns no-op families and a nil collector.
func NewMetrics(cfg config.MetricsConfig, logger logging.Logger) (*prom.AppMetrics, prom.MetricsCollector, error) {
	if !cfg.Enabled {
		return prom.NewNopAppMetrics(), nil, nil
	}
	collector, err := prom.NewMetricsCollector(prom.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: cfg.EnableProcessMetrics,
		EnableGoMetrics:      cfg.EnableGoMetrics,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return prom.NewAppMetrics(collector), collector, nil
}

// Build assembles a Runtime. The engine is returned unloaded; callers decide
// whether a failed initial Reload is fatal. Redis and PostgreSQL failures
// are logged and the corresponding tier is skipped.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (*Runtime, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt := &Runtime{Config: cfg, Logger: logger, Metrics: opts.Metrics}

	if rt.Metrics == nil {
		m, collector, err := NewMetrics(cfg.Metrics, logger)
		if err != nil {
			return nil, err
		}
		rt.Metrics, rt.Collector = m, collector
	}

	rt.Source = opts.Source
	if rt.Source == nil {
		src, err := artifact.New(ctx, cfg, logger.Named("artifact"))
		if err != nil {
			return nil, err
		}
		rt.Source = src
	}
	if hc, ok := rt.Source.(interface{ HealthCheck(context.Context) error }); ok {
		rt.Checks = append(rt.Checks, Check{ComponentName: "artifacts", Fn: hc.HealthCheck})
	}

	engineOpts := []prediction.EngineOption{
		prediction.WithMetrics(rt.Metrics),
		prediction.WithLogger(logger.Named("engine")),
	}
	concurrency := cfg.Inference.BatchConcurrency
	if opts.BatchConcurrency > 0 {
		concurrency = opts.BatchConcurrency
	}
	engineOpts = append(engineOpts, prediction.WithBatchLimits(cfg.Inference.MaxBatchSize, concurrency))

	if cfg.Cache.Enabled && !opts.DisableCache {
		rt.Cache = rt.buildCache(ctx)
		engineOpts = append(engineOpts, prediction.WithCache(rt.Cache))
	}
	if cfg.Database.Enabled && !opts.DisableHistory {
		if repo := rt.buildHistory(ctx); repo != nil {
			rt.History = repo
			engineOpts = append(engineOpts, prediction.WithHistory(repo, cfg.Database.WriteTimeout))
		}
	}

	loadOpts := prediction.LoadOptionsFromConfig(cfg.Inference)
	loadOpts.Logger = rt.Logger.Named("loader")
	rt.Engine = prediction.NewEngine(prediction.SourceLoader(rt.Source, loadOpts), engineOpts...)
	return rt, nil
}

func (rt *Runtime) buildCache(ctx context.Context) *cache.Tiered {
	cfg := rt.Config
	var remote redis.Cache
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, rt.Logger.Named("redis"))
		if err != nil {
			rt.Logger.Warn("redis unavailable, using the in-process cache only", logging.Err(err))
		} else {
			remote = redis.NewRedisCache(client, rt.Logger.Named("redis"), redis.WithDefaultTTL(cfg.Cache.RemoteTTL))
			rt.closers = append(rt.closers, client.Close)
			rt.Checks = append(rt.Checks, Check{ComponentName: "redis", Fn: client.Ping})
		}
	}
	return cache.NewTiered(remote, cache.Options{
		LocalSizeMB: cfg.Cache.LocalSizeMB,
		LocalTTL:    cfg.Cache.LocalTTL,
		RemoteTTL:   cfg.Cache.RemoteTTL,
		Metrics:     rt.Metrics,
		Logger:      rt.Logger.Named("cache"),
	})
}

func (rt *Runtime) buildHistory(ctx context.Context) property.RecordRepository {
	cfg := rt.Config
	log := rt.Logger.Named("postgres")
	conn, err := postgres.NewConnection(ctx, cfg.Database, log)
	if err != nil {
		rt.Logger.Warn("history store unavailable, predictions will not be recorded", logging.Err(err))
		return nil
	}
	if cfg.Database.AutoMigrate {
		if err := migrateUp(conn, log); err != nil {
			rt.Logger.Warn("history migrations failed, predictions will not be recorded", logging.Err(err))
			_ = conn.Close()
			return nil
		}
	}
	rt.closers = append(rt.closers, conn.Close)
	rt.Checks = append(rt.Checks, Check{ComponentName: "postgres", Fn: conn.HealthCheck})
	return repositories.NewPostgresRecordRepo(conn, log)
}

func migrateUp(conn *postgres.Connection, log logging.Logger) error {
	mg, err := postgres.NewMigrator(conn.DB(), log)
	if err != nil {
		return err
	}
	// Migrator.Close would also close the shared pool.
	return mg.Up()
}

// LoadModel performs the initial Reload and logs the outcome.
func (rt *Runtime) LoadModel(ctx context.Context) error {
	start := time.Now()
	if err := rt.Engine.Reload(ctx); err != nil {
		return err
	}
	h := rt.Engine.Health()
	rt.Logger.Info("model loaded",
		logging.String("version", h.ModelVersion),
		logging.Int("properties", h.PropertiesCount),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

// WatchArtifacts reloads the engine whenever the local artifact directory
// changes. It returns immediately when reloads are disabled or the source
// is not a local directory, and otherwise blocks until ctx is done.
func (rt *Runtime) WatchArtifacts(ctx context.Context) error {
	cfg := rt.Config.Inference
	local, ok := rt.Source.(*artifact.LocalSource)
	if !cfg.Reload.Enabled || !ok {
		return nil
	}
	names := prediction.LoadOptionsFromConfig(cfg).Names
	w := &artifact.Watcher{
		Dir:      local.Dir(),
		Names:    []string{names.Weights, names.FeatureScaler, names.TargetScaler, names.Targets},
		Debounce: cfg.Reload.Debounce,
		Logger:   rt.Logger.Named("watcher"),
		// Reload logs its own failures and keeps the current context.
		OnChange: func(ctx context.Context) { _ = rt.Engine.Reload(ctx) },
	}
	return w.Run(ctx)
}

// Close releases everything Build opened, in reverse order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return stderrors.Join(errs...)
}

//Personal.AI order the ending
