package bootstrap

import (
	"context"
	"sync"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ExpTrack/internal/interfaces/http"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/handlers"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// DefaultWorkerHealthAddr is where the worker serves /healthz, /readyz and
// /metrics.
const DefaultWorkerHealthAddr = ":8081"

// Worker consumes metrics-updated events and drops the matching payloads
// from the shared redis cache, so API servers refetch on the next read.
type Worker struct {
	cfg    *config.Config
	logger logging.Logger

	infra    *infrastructure
	consumer *kafka.Consumer
	health   *httpserver.Server

	closeOnce sync.Once
}

// NewWorker connects to redis and kafka.  Kafka must be enabled.
func NewWorker(ctx context.Context, cfg *config.Config, logger logging.Logger, healthAddr string, opts ...Option) (*Worker, error) {
	if !cfg.Kafka.Enabled {
		return nil, errors.NewValidationError("worker requires kafka.enabled")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if healthAddr == "" {
		healthAddr = DefaultWorkerHealthAddr
	}
	o := buildOptions(opts)

	infra, err := newInfrastructure(cfg, logger)
	if err != nil {
		return nil, err
	}
	w := &Worker{cfg: cfg, logger: logger, infra: infra}
	if err := w.build(ctx, o, healthAddr); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Worker) build(ctx context.Context, o options, healthAddr string) error {
	cache, err := w.infra.payloadCache()
	if err != nil {
		return err
	}
	// The worker only invalidates, so the read-through source is never hit.
	invalidator := scalars.NewCachingSource(scalars.NewStaticSource(), cache, w.cfg.Upstream.CacheTTL, w.infra.metrics, w.logger)

	w.infra.ensureTopics(ctx)

	consumer, err := kafka.NewConsumer(consumerConfig(w.cfg.Kafka, kafka.TopicMetricsUpdated), w.logger.Named("kafka"))
	if err != nil {
		return err
	}
	w.consumer = consumer
	w.infra.track("kafka_consumer", consumer.Close, nil)
	consumer.Subscribe(kafka.TopicMetricsUpdated, kafka.NewMetricsUpdatedHandler(invalidator, w.logger))

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(o.version, w.infra.metrics, w.infra.checkers...),
		Logger:           w.logger,
		MetricsCollector: w.infra.collector,
	})
	w.health = httpserver.NewServer(healthAddr, router)
	return nil
}

// Run consumes until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	defer w.Close()

	if err := w.consumer.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.health.Start() }()

	w.logger.Info("invalidation worker started",
		logging.String("topic", kafka.TopicMetricsUpdated),
		logging.String("group", w.cfg.Kafka.GroupID))

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr != nil {
			w.logger.Error("health server failed", logging.Err(runErr))
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := w.health.Shutdown(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	w.logger.Info("invalidation worker stopped")
	return runErr
}

// ApplyConfig applies a new log level.
func (w *Worker) ApplyConfig(cfg *config.Config) {
	if logging.SetLevel(w.logger, logging.ParseLevel(cfg.Log.Level)) {
		w.logger.Info("log level applied", logging.String("level", cfg.Log.Level))
	}
}

// Close stops the consumer and releases every connection.
func (w *Worker) Close() {
	w.closeOnce.Do(w.infra.Close)
}

//Personal.AI order the ending
