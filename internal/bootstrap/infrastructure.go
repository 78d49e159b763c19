package bootstrap

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/turtacn/ExpTrack/internal/application/scalars"
	"github.com/turtacn/ExpTrack/internal/config"
	domain "github.com/turtacn/ExpTrack/internal/domain/savedview"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/memory"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/redis"
	"github.com/turtacn/ExpTrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/internal/infrastructure/storage/minio"
	"github.com/turtacn/ExpTrack/internal/infrastructure/upstream"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/handlers"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// infrastructure owns every external connection of a process.  Connections
// are opened on demand and closed in reverse order.
type infrastructure struct {
	cfg       *config.Config
	logger    logging.Logger
	collector prometheus.MetricsCollector
	metrics   *prometheus.AppMetrics

	redis    *redis.Client
	postgres *postgres.Connection
	producer *kafka.Producer
	minio    *minio.MinIOClient
	upstream *upstream.Client

	closers  []namedCloser
	checkers []handlers.HealthChecker
}

type namedCloser struct {
	name  string
	close func() error
}

func newInfrastructure(cfg *config.Config, logger logging.Logger) (*infrastructure, error) {
	collector, err := prometheus.NewMetricsCollector(collectorConfig(cfg.Metrics), logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create metrics collector")
	}
	return &infrastructure{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		metrics:   prometheus.NewAppMetrics(collector),
	}, nil
}

func (in *infrastructure) track(name string, close func() error, check func(context.Context) error) {
	in.closers = append(in.closers, namedCloser{name: name, close: close})
	if check != nil {
		in.checkers = append(in.checkers, handlers.NewChecker(name, check))
	}
}

// Close releases every opened connection, newest first.
func (in *infrastructure) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		c := in.closers[i]
		if err := c.close(); err != nil {
			in.logger.Warn("failed to close connection", logging.String("component", c.name), logging.Err(err))
		}
	}
	in.closers = nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Connections
// ─────────────────────────────────────────────────────────────────────────────

func (in *infrastructure) redisClient() (*redis.Client, error) {
	if in.redis != nil {
		return in.redis, nil
	}
	client, err := redis.NewClient(redisConfig(in.cfg.Redis), in.logger.Named("redis"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "redis: connect failed")
	}
	in.redis = client
	in.track("redis", client.Close, client.Ping)
	return client, nil
}

func (in *infrastructure) postgresConn() (*postgres.Connection, error) {
	if in.postgres != nil {
		return in.postgres, nil
	}
	conn, err := postgres.NewConnection(postgresConfig(in.cfg.Database), in.logger.Named("postgres"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "postgres: connect failed")
	}
	in.postgres = conn
	in.track("postgres", conn.Close, conn.HealthCheck)
	if in.cfg.Database.AutoMigrate {
		if err := conn.RunMigrations(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "postgres: migrations failed")
		}
	}
	return conn, nil
}

func (in *infrastructure) kafkaProducer() (*kafka.Producer, error) {
	if in.producer != nil {
		return in.producer, nil
	}
	p, err := kafka.NewProducer(producerConfig(in.cfg.Kafka), in.logger.Named("kafka"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "kafka: producer setup failed")
	}
	in.producer = p
	in.track("kafka_producer", p.Close, nil)
	return p, nil
}

func (in *infrastructure) minioClient() (*minio.MinIOClient, error) {
	if in.minio != nil {
		return in.minio, nil
	}
	c, err := minio.NewMinIOClient(minioConfig(in.cfg.MinIO), in.logger.Named("minio"))
	if err != nil {
		return nil, err
	}
	in.minio = c
	in.track("minio", c.Close, c.HealthCheck)
	return c, nil
}

func (in *infrastructure) upstreamClient() (*upstream.Client, error) {
	if in.upstream != nil {
		return in.upstream, nil
	}
	c, err := upstream.NewClient(upstreamConfig(in.cfg.Upstream), in.logger)
	if err != nil {
		return nil, err
	}
	in.upstream = c
	in.track("upstream", func() error { return nil }, c.Ping)
	return c, nil
}

// ensureTopics creates the default topics.  Failures are logged because
// brokers that auto-create topics still work without it.
func (in *infrastructure) ensureTopics(ctx context.Context) {
	k := in.cfg.Kafka
	if !k.Enabled || !k.AutoCreateTopics {
		return
	}
	tm, err := kafka.NewTopicManager(k.Brokers, in.logger.Named("kafka"))
	if err != nil {
		in.logger.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, topicConfigs(k)); err != nil {
		in.logger.Warn("failed to ensure kafka topics", logging.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Components
// ─────────────────────────────────────────────────────────────────────────────

func (in *infrastructure) viewRepository() (domain.Repository, error) {
	switch in.cfg.Views.Driver {
	case "", "memory":
		return memory.NewSavedViewRepo(), nil
	case "redis":
		client, err := in.redisClient()
		if err != nil {
			return nil, err
		}
		return redis.NewSavedViewRepo(client, in.logger.Named("views")), nil
	case "postgres":
		conn, err := in.postgresConn()
		if err != nil {
			return nil, err
		}
		return repositories.NewPostgresSavedViewRepo(conn, in.logger.Named("views")), nil
	default:
		return nil, errors.NewValidationError("unknown views driver: " + in.cfg.Views.Driver)
	}
}

func (in *infrastructure) viewPublisher() (domain.EventPublisher, error) {
	if !in.cfg.Kafka.Enabled || !in.cfg.Views.Publish {
		return domain.NopPublisher{}, nil
	}
	p, err := in.kafkaProducer()
	if err != nil {
		return nil, err
	}
	return kafka.NewViewEventPublisher(p, kafka.TopicViewEvents), nil
}

// metricsSource picks the upstream client when a base URL is configured,
// then the local data file, then an empty store.  The returned cache is
// nil unless the upstream is fronted by redis.
func (in *infrastructure) metricsSource() (scalars.MetricsSource, *scalars.CachingSource, error) {
	up := in.cfg.Upstream
	if up.BaseURL == "" {
		static := scalars.NewStaticSource()
		if up.DataFile != "" {
			ds, err := scalars.ReadDatasetFile(up.DataFile)
			if err != nil {
				return nil, nil, err
			}
			project := dataFileProject(up.DataFile)
			static.Put(project, ds)
			in.logger.Info("serving dataset from file",
				logging.String("path", up.DataFile),
				logging.String("project_id", project),
				logging.Int("experiments", len(ds.Experiments)))
		}
		return static, nil, nil
	}

	client, err := in.upstreamClient()
	if err != nil {
		return nil, nil, err
	}
	if up.CacheTTL <= 0 {
		return client, nil, nil
	}
	cache, err := in.payloadCache()
	if err != nil {
		in.logger.Warn("payload cache disabled", logging.Err(err))
		return client, nil, nil
	}
	cs := scalars.NewCachingSource(client, cache, up.CacheTTL, in.metrics, in.logger)
	return cs, cs, nil
}

func (in *infrastructure) payloadCache() (redis.Cache, error) {
	client, err := in.redisClient()
	if err != nil {
		return nil, err
	}
	opts := []redis.CacheOption{redis.WithDefaultTTL(in.cfg.Upstream.CacheTTL)}
	if in.cfg.Redis.KeyPrefix != "" {
		opts = append(opts, redis.WithPrefix(in.cfg.Redis.KeyPrefix))
	}
	return redis.NewRedisCache(client, in.logger.Named("cache"), opts...), nil
}

func (in *infrastructure) exporter() (*scalars.Exporter, error) {
	m := in.cfg.MinIO
	if !m.Enabled {
		return nil, nil
	}
	store, err := in.minioClient()
	if err != nil {
		return nil, err
	}
	renderer := scalars.NewPNGRenderer(m.ChartWidth, m.ChartHeight)
	return scalars.NewExporter(renderer, store, m.PresignExpiry, in.metrics, in.logger), nil
}

// dataFileProject names the project served from a data file after the
// file's base name, so "runs/mnist.json" is project "mnist".
func dataFileProject(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

//Personal.AI order the ending
