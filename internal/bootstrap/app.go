// Package bootstrap assembles the API server and the cache invalidation
// worker from configuration.
package bootstrap

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/turtacn/ExpTrack/internal/application/savedview"
	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/ExpTrack/internal/interfaces/grpc"
	httpserver "github.com/turtacn/ExpTrack/internal/interfaces/http"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/handlers"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/middleware"
)

const (
	healthInterval      = 15 * time.Second
	stopTimeout         = 30 * time.Second
	defaultVersionLabel = "dev"
)

// Option customises NewApp and NewWorker.
type Option func(*options)

type options struct {
	version string
}

// WithVersion sets the version reported by the health endpoints.
func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{version: defaultVersionLabel}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// App is a fully wired API server.
type App struct {
	cfg    *config.Config
	logger logging.Logger

	infra    *infrastructure
	sessions scalars.Service
	cache    *scalars.CachingSource
	limiter  *middleware.TokenBucketLimiter
	handler  http.Handler
	http     *httpserver.Server
	grpc     *grpcserver.Server

	closeOnce sync.Once
}

// NewApp opens every connection cfg asks for and builds the HTTP and gRPC
// servers.  On error everything opened so far is closed again.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	o := buildOptions(opts)

	infra, err := newInfrastructure(cfg, logger)
	if err != nil {
		return nil, err
	}
	app := &App{cfg: cfg, logger: logger, infra: infra}
	if err := app.build(ctx, o); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, o options) error {
	cfg, in := a.cfg, a.infra

	repo, err := in.viewRepository()
	if err != nil {
		return err
	}
	publisher, err := in.viewPublisher()
	if err != nil {
		return err
	}
	views := savedview.NewService(repo, publisher, a.logger, savedview.Options{DefaultNamePrefix: cfg.Views.NamePrefix})

	source, cache, err := in.metricsSource()
	if err != nil {
		return err
	}
	a.cache = cache

	exporter, err := in.exporter()
	if err != nil {
		return err
	}

	a.sessions = scalars.NewService(source, views, exporter, in.metrics, a.logger, scalars.Options{
		IdleTTL:     cfg.Sessions.IdleTTL,
		MaxSessions: cfg.Sessions.MaxSessions,
	})

	in.ensureTopics(ctx)

	routerCfg := httpserver.RouterConfig{
		SessionHandler:    handlers.NewSessionHandler(a.sessions, a.logger, cfg.Server.MaxBodySize),
		ViewHandler:       handlers.NewViewHandler(views, in.metrics, a.logger, cfg.Server.MaxBodySize),
		HealthHandler:     handlers.NewHealthHandler(o.version, in.metrics, in.checkers...),
		CORSMiddleware:    middleware.NewCORSMiddleware(corsConfig(cfg.Server)),
		LoggingMiddleware: middleware.NewLoggingMiddleware(a.logger, in.metrics, middleware.DefaultLoggingConfig()),
		Logger:            a.logger,
		MetricsCollector:  in.collector,
	}
	if len(cfg.Server.APIKeys) > 0 {
		routerCfg.AuthMiddleware = middleware.NewAuthMiddleware(
			middleware.NewStaticKeys(cfg.Server.APIKeys),
			middleware.AuthConfig{},
			a.logger)
	}
	if rl := rateLimitConfig(cfg.Server); rl != nil {
		a.limiter = middleware.NewTokenBucketLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.CleanupInterval)
		routerCfg.RateLimitMiddleware = middleware.NewRateLimitMiddleware(a.limiter, *rl, a.logger)
	}

	a.handler = httpserver.NewRouter(routerCfg)
	a.http = httpserver.NewServerFromConfig(cfg.Server, a.handler, a.logger)

	if cfg.GRPC.Enabled {
		a.grpc, err = grpcserver.NewServer(cfg.GRPC,
			grpcserver.WithLogger(a.logger),
			grpcserver.WithMetrics(in.metrics))
		if err != nil {
			return err
		}
	}

	a.logger.Info("application assembled",
		logging.String("views_driver", cfg.Views.Driver),
		logging.Bool("payload_cache", a.cache != nil),
		logging.Bool("exports", exporter != nil),
		logging.Bool("grpc", a.grpc != nil),
		logging.Bool("auth", routerCfg.AuthMiddleware != nil))
	return nil
}

// Handler returns the HTTP route tree.
func (a *App) Handler() http.Handler { return a.handler }

// Sessions returns the session service.
func (a *App) Sessions() scalars.Service { return a.sessions }

// Run serves on the configured address until ctx is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, a.http.Start)
}

// Serve is Run over an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	return a.run(ctx, func() error { return a.http.Serve(ln) })
}

func (a *App) run(ctx context.Context, serve func() error) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sessions.Run(ctx, a.cfg.Sessions.SweepInterval)
	}()

	go func() { errCh <- serve() }()

	if a.grpc != nil {
		go func() { errCh <- a.grpc.Start() }()

		checkers := make([]grpcserver.Checker, 0, len(a.infra.checkers))
		for _, c := range a.infra.checkers {
			checkers = append(checkers, c)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.grpc.MonitorHealth(ctx, healthInterval, checkers...)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("server failed", logging.Err(runErr))
		}
	}
	cancel()

	stopCtx, stop := context.WithTimeout(context.Background(), stopTimeout)
	defer stop()
	if err := a.http.Shutdown(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	if a.grpc != nil {
		if err := a.grpc.Stop(stopCtx); err != nil && runErr == nil {
			runErr = err
		}
	}
	wg.Wait()
	return runErr
}

// ApplyConfig applies the settings that may change while running: the log
// level and the payload cache TTL.  Everything else needs a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if logging.SetLevel(a.logger, logging.ParseLevel(cfg.Log.Level)) {
		a.logger.Info("log level applied", logging.String("level", cfg.Log.Level))
	}
	if a.cache != nil && cfg.Upstream.CacheTTL > 0 && cfg.Upstream.CacheTTL != a.cache.TTL() {
		a.cache.SetTTL(cfg.Upstream.CacheTTL)
		a.logger.Info("payload cache ttl changed", logging.Duration("ttl", cfg.Upstream.CacheTTL))
	}
}

// Close releases the rate limiter and every connection.  It is safe to call
// more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.limiter != nil {
			a.limiter.Stop()
		}
		a.infra.Close()
	})
}

//Personal.AI order the ending
