// Package grpc serves the standard gRPC health service so orchestrators can
// probe model readiness over gRPC. The overall status and the prediction
// service status follow the engine: SERVING once an inference context is
// installed, NOT_SERVING before that and during shutdown.
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

// PredictionService is the health service name reported for the model.
const PredictionService = "molprop.v1.Prediction"

const (
	defaultGracefulTimeout = 10 * time.Second
	defaultPollInterval    = 2 * time.Second
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle:     15 * time.Minute,
	MaxConnectionAge:      30 * time.Minute,
	MaxConnectionAgeGrace: 5 * time.Second,
	Time:                  5 * time.Minute,
	Timeout:               1 * time.Second,
}

// ReadinessFunc reports whether predictions can be served.
type ReadinessFunc func() bool

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	gracefulTimeout time.Duration
	pollInterval    time.Duration
	reflection      bool
}

func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// WithPollInterval sets how often readiness is re-evaluated.
func WithPollInterval(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithReflection registers the reflection service.
func WithReflection() Option {
	return func(o *serverOptions) { o.reflection = true }
}

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	opts         *serverOptions
	healthServer *health.Server
	ready        ReadinessFunc

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// NewServer listens on addr (":0" picks a free port).
func NewServer(addr string, ready ReadinessFunc, opts ...Option) (*Server, error) {
	if ready == nil {
		return nil, fmt.Errorf("readiness func must not be nil")
	}
	sopts := &serverOptions{
		logger:          logging.NewNopLogger(),
		gracefulTimeout: defaultGracefulTimeout,
		pollInterval:    defaultPollInterval,
	}
	for _, o := range opts {
		o(sopts)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	gs := grpc.NewServer(
		grpc.KeepaliveParams(defaultKeepaliveParams),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(sopts.logger),
			loggingUnaryInterceptor(sopts.logger),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if sopts.reflection {
		reflection.Register(gs)
	}

	s := &Server{
		grpcServer:   gs,
		listener:     lis,
		opts:         sopts,
		healthServer: hs,
		ready:        ready,
	}
	s.SyncHealth()
	return s, nil
}

// SyncHealth publishes the current readiness.
func (s *Server) SyncHealth() healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if s.ready() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.healthServer.SetServingStatus("", st)
	s.healthServer.SetServingStatus(PredictionService, st)
	return st
}

// Start serves until Stop. Readiness is polled in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.pollReadiness(ctx)
	s.opts.logger.Info("grpc server starting", logging.String("address", s.Addr()))
	if err := s.grpcServer.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func (s *Server) pollReadiness(ctx context.Context) {
	t := time.NewTicker(s.opts.pollInterval)
	defer t.Stop()
	last := s.SyncHealth()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if st := s.SyncHealth(); st != last {
				s.opts.logger.Info("grpc health changed", logging.String("status", st.String()))
				last = st
			}
		}
	}
}

// Stop drains connections, forcing a stop once the graceful timeout or ctx
// expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.grpcServer.Stop()
		return s.listener.Close()
	}
	s.cancel()
	s.mu.Unlock()

	s.opts.logger.Info("grpc server stopping")
	s.healthServer.Shutdown()

	gracefulCtx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		s.opts.logger.Info("grpc server stopped gracefully")
	case <-gracefulCtx.Done():
		s.opts.logger.Warn("grpc graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc panic recovered",
					logging.String("method", info.FullMethod),
					logging.String("panic", fmt.Sprintf("%v", r)),
					logging.String("stack", string(debug.Stack())))
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isHealthCheck(info.FullMethod) {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			logging.String("method", info.FullMethod),
			logging.Duration("duration", time.Since(start)),
			logging.String("code", status.Code(err).String()))
		return resp, err
	}
}

//Personal.AI order the ending
