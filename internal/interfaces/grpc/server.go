// Package grpc serves the standard gRPC health protocol for ExpTrack so that
// load balancers and orchestrators can probe the service without HTTP.
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strconv"
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

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
)

const (
	defaultMaxRecvMsgSize  = 4 * 1024 * 1024
	defaultGracefulTimeout = 10 * time.Second
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle:     15 * time.Minute,
	MaxConnectionAge:      30 * time.Minute,
	MaxConnectionAgeGrace: 5 * time.Second,
	Time:                  5 * time.Minute,
	Timeout:               1 * time.Second,
}

var defaultKeepalivePolicy = keepalive.EnforcementPolicy{
	MinTime:             5 * time.Second,
	PermitWithoutStream: true,
}

// Checker is a dependency whose health feeds a named serving status.  The
// HTTP readiness checkers satisfy it.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

// Option configures the gRPC Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	maxRecvMsgSize  int
	keepaliveParams keepalive.ServerParameters
	gracefulTimeout time.Duration
	reflection      bool
}

// WithLogger sets the logger for the gRPC server.
func WithLogger(l logging.Logger) Option {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithMetrics records per-method request counts and latencies.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(o *serverOptions) {
		o.metrics = m
	}
}

// WithMaxRecvMsgSize sets the maximum receive message size in bytes.
func WithMaxRecvMsgSize(size int) Option {
	return func(o *serverOptions) {
		if size > 0 {
			o.maxRecvMsgSize = size
		}
	}
}

// WithKeepaliveParams sets keepalive parameters for the gRPC server.
func WithKeepaliveParams(params keepalive.ServerParameters) Option {
	return func(o *serverOptions) {
		o.keepaliveParams = params
	}
}

// WithGracefulTimeout sets the graceful shutdown timeout.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// WithReflection registers the reflection service, for grpcurl in
// development.
func WithReflection(enabled bool) Option {
	return func(o *serverOptions) {
		o.reflection = enabled
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

// Server wraps a gRPC server exposing grpc.health.v1.Health.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	opts         *serverOptions
	healthServer *health.Server
	mu           sync.Mutex
	started      bool
}

// NewServer binds the listener from cfg and registers the health service.
// Port 0 picks a free port; see Addr.
func NewServer(cfg config.GRPCConfig, opts ...Option) (*Server, error) {
	sopts := &serverOptions{
		maxRecvMsgSize:  defaultMaxRecvMsgSize,
		keepaliveParams: defaultKeepaliveParams,
		gracefulTimeout: defaultGracefulTimeout,
	}
	for _, o := range opts {
		o(sopts)
	}
	if sopts.logger == nil {
		sopts.logger = logging.NewNopLogger()
	}
	sopts.logger = sopts.logger.Named("grpc")
	if sopts.metrics == nil {
		sopts.metrics = prometheus.NewNoopAppMetrics()
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(sopts.maxRecvMsgSize),
		grpc.KeepaliveParams(sopts.keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(defaultKeepalivePolicy),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(sopts.logger),
			loggingUnaryInterceptor(sopts.logger),
			metricsUnaryInterceptor(sopts.metrics),
		),
		grpc.ChainStreamInterceptor(
			recoveryStreamInterceptor(sopts.logger),
			metricsStreamInterceptor(sopts.metrics),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if sopts.reflection {
		reflection.Register(gs)
		sopts.logger.Info("grpc reflection service registered")
	}

	return &Server{
		grpcServer:   gs,
		listener:     lis,
		opts:         sopts,
		healthServer: hs,
	}, nil
}

// SetComponentStatus sets the serving status reported for service name.
// The empty name is the overall server status.
func (s *Server) SetComponentStatus(name string, serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.healthServer.SetServingStatus(name, st)
}

// RefreshHealth runs every checker once, publishes each result under the
// checker's name and sets the overall status to SERVING only when all pass.
func (s *Server) RefreshHealth(ctx context.Context, checkers ...Checker) bool {
	healthy := true
	for _, c := range checkers {
		err := c.Check(ctx)
		if err != nil {
			healthy = false
			s.opts.logger.Warn("dependency unhealthy", logging.String("component", c.Name()), logging.Err(err))
		}
		s.SetComponentStatus(c.Name(), err == nil)
	}
	s.SetComponentStatus("", healthy)
	return healthy
}

// MonitorHealth calls RefreshHealth every interval until ctx is done.
func (s *Server) MonitorHealth(ctx context.Context, interval time.Duration, checkers ...Checker) {
	if len(checkers) == 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RefreshHealth(ctx, checkers...)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshHealth(ctx, checkers...)
		}
	}
}

// Start serves until Stop.  It blocks.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.opts.logger.Info("grpc server starting", logging.String("address", s.listener.Addr().String()))
	return s.grpcServer.Serve(s.listener)
}

// Stop marks the server NOT_SERVING, then drains.  When the graceful period
// expires, it forces an immediate stop.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return s.listener.Close()
	}

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

// Addr returns the actual network address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Interceptors
// ─────────────────────────────────────────────────────────────────────────────

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc panic recovered",
					logging.String("method", info.FullMethod),
					logging.String("panic", fmt.Sprintf("%v", r)),
					logging.String("stack", string(debug.Stack())),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func recoveryStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc stream panic recovered",
					logging.String("method", info.FullMethod),
					logging.String("panic", fmt.Sprintf("%v", r)),
				)
				err = status.Errorf(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

// loggingUnaryInterceptor logs every call except health probes at Debug.
func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if !isHealthCheck(info.FullMethod) {
			logger.Info("grpc request",
				logging.String("method", info.FullMethod),
				logging.Duration("duration", time.Since(start)),
				logging.String("code", status.Code(err).String()),
			)
		} else {
			logger.Debug("grpc health probe", logging.String("code", status.Code(err).String()))
		}
		return resp, err
	}
}

func metricsUnaryInterceptor(m *prometheus.AppMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		service, method := splitMethodName(info.FullMethod)
		prometheus.RecordGRPCRequest(m, service, method, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

func metricsStreamInterceptor(m *prometheus.AppMetrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		service, method := splitMethodName(info.FullMethod)
		prometheus.RecordGRPCRequest(m, service, method, status.Code(err).String(), time.Since(start))
		return err
	}
}

// splitMethodName splits "/package.Service/Method" into ("package.Service", "Method").
func splitMethodName(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	idx := strings.LastIndex(fullMethod, "/")
	if idx < 0 {
		return "unknown", fullMethod
	}
	return fullMethod[:idx], fullMethod[idx+1:]
}

//Personal.AI order the ending
