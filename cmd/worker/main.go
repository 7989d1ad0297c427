// Batch prediction worker for MolProp-Intelligence. It consumes prediction
// jobs from Kafka, runs them through the engine and publishes one result
// message per job. Jobs that keep failing go to the dead-letter topic.
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
	"time"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/bootstrap"
	"github.com/turtacn/MolProp-Intelligence/internal/config"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

const (
	defaultHealthPort     = 8081
	defaultHandlerTimeout = 5 * time.Minute
	shutdownTimeout       = 30 * time.Second
)

// version is injected via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (default: MOLPROP_* variables only)")
	workers := flag.Int("workers", 0, "concurrent predictions per job (overrides kafka.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	handlerTimeout := flag.Duration("handler-timeout", defaultHandlerTimeout, "maximum time spent on one job")
	createTopics := flag.Bool("create-topics", true, "create the jobs, results and dead-letter topics when missing")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		return err
	}
	if *workers > 0 {
		cfg.Kafka.Concurrency = *workers
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	if cfg.Log.Service == "" {
		cfg.Log.Service = "molprop-worker"
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting MolProp-Intelligence worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("jobs_topic", cfg.Kafka.JobsTopic),
		logging.Int("concurrency", cfg.Kafka.Concurrency))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{BatchConcurrency: cfg.Kafka.Concurrency})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("failed to release resources", logging.Err(err))
		}
	}()
	// A worker without a model would only produce failed results.
	if err := rt.LoadModel(ctx); err != nil {
		return err
	}

	if *createTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger.Named("producer"))
	if err != nil {
		return err
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka), producer, logger.Named("consumer"))
	if err != nil {
		return err
	}

	processor := prediction.NewJobProcessor(rt.Engine, producer, cfg.Kafka.ResultsTopic, rt.Metrics, logger.Named("jobs"))
	consumer.Subscribe(cfg.Kafka.JobsTopic, func(ctx context.Context, msg *kafka.Message) error {
		jobCtx, cancel := context.WithTimeout(ctx, *handlerTimeout)
		defer cancel()
		return processor.Handle(jobCtx, msg.Value)
	})

	health := newHealthServer(*healthPort, rt, consumer)
	go func() {
		logger.Info("health server listening", logging.Int("port", *healthPort))
		if err := health.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	go func() {
		if err := rt.WatchArtifacts(ctx); err != nil {
			logger.Error("artifact watcher stopped", logging.Err(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down worker")

	// Close waits for the in-flight job before the producer goes away.
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := health.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	processed, failed, deadLettered := consumer.Stats()
	logger.Info("worker stopped",
		logging.Int64("processed", processed),
		logging.Int64("failed", failed),
		logging.Int64("dead_lettered", deadLettered))
	return nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger.Named("topics"))
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg))
}

// newHealthServer exposes liveness, readiness (model loaded) and metrics.
func newHealthServer(port int, rt *bootstrap.Runtime, consumer *kafka.Consumer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		h := rt.Engine.Health()
		if !h.ModelLoaded {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(prediction.MessageModelNotLoaded))
			return
		}
		processed, failed, dead := consumer.Stats()
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ready model=%s processed=%d failed=%d dead_lettered=%d", h.ModelVersion, processed, failed, dead)
	})
	if rt.Collector != nil {
		mux.Handle("/metrics", rt.Collector.Handler())
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

//Personal.AI order the ending
