// API server entry point for MolProp-Intelligence.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/MolProp-Intelligence/internal/bootstrap"
	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/MolProp-Intelligence/internal/interfaces/grpc"
	httpserver "github.com/turtacn/MolProp-Intelligence/internal/interfaces/http"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/middleware"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (default: MOLPROP_* variables only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC health port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		return err
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Log.Service == "" {
		cfg.Log.Service = "molprop-apiserver"
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting MolProp-Intelligence API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc", cfg.GRPC.Enabled),
		logging.String("artifacts", cfg.Inference.Artifacts.Source))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to release resources", logging.Err(err))
		}
	}()

	// Without a model the server still answers; predictions report
	// "Model not loaded" until a reload succeeds.
	if err := rt.LoadModel(ctx); err != nil {
		logger.Error("initial model load failed", logging.Err(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	limiter := newRateLimiter(cfg.RateLimit)
	if limiter != nil {
		g.Go(func() error { limiter.RunCleanup(gctx); return nil })
	}

	srv := httpserver.NewServer(cfg.Server, newHandler(rt, limiter), logger.Named("http"))
	g.Go(srv.Start)
	g.Go(func() error { return rt.WatchArtifacts(gctx) })

	var gs *grpcserver.Server
	if cfg.GRPC.Enabled {
		gs, err = grpcserver.NewServer(
			fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port),
			func() bool { return rt.Engine.Health().ModelLoaded },
			grpcserver.WithLogger(logger.Named("grpc")),
			grpcserver.WithGracefulTimeout(cfg.Server.ShutdownTimeout),
		)
		if err != nil {
			return err
		}
		g.Go(gs.Start)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		err := srv.Stop(context.Background())
		if gs != nil {
			err = stderrors.Join(err, gs.Stop(context.Background()))
		}
		return err
	})

	if err := g.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("servers stopped")
	return nil
}

// newHandler assembles the gin router over the runtime.
func newHandler(rt *bootstrap.Runtime, limiter *middleware.RateLimiter) http.Handler {
	cfg := rt.Config

	var history handlers.HistoryReader
	if rt.History != nil {
		history = rt.Engine
	}
	checkers := make([]handlers.HealthChecker, len(rt.Checks))
	for i, c := range rt.Checks {
		checkers[i] = c
	}

	var metricsHandler http.Handler
	if rt.Collector != nil {
		metricsHandler = rt.Collector.Handler()
	}

	return httpserver.NewRouter(httpserver.RouterConfig{
		Mode:              cfg.Server.Mode,
		PredictionHandler: handlers.NewPredictionHandler(rt.Engine, history, rt.Logger.Named("handler")),
		HealthHandler:     handlers.NewHealthHandler(rt.Engine, version, checkers...),
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		MaxBodySize:       cfg.Server.MaxBodySize,
		RateLimiter:       limiter,
		Logger:            rt.Logger.Named("http"),
		Metrics:           rt.Metrics,
		MetricsHandler:    metricsHandler,
	})
}

func newRateLimiter(cfg config.RateLimitConfig) *middleware.RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	return middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		IdleTTL:           cfg.IdleTTL,
		SkipPaths:         middleware.DefaultRateLimitConfig().SkipPaths,
	})
}

//Personal.AI order the ending
