package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultGRPCPort   = 9090

	DefaultViewsDriver     = "memory"
	DefaultViewsNamePrefix = "View"

	DefaultRedisMode      = "standalone"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "exptrack:"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "exptrack"
	DefaultDBMaxConns = 25

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "exptrack-group"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "exptrack-exports"

	DefaultUpstreamTimeout  = 10 * time.Second
	DefaultUpstreamCacheTTL = time.Minute

	DefaultMetricsNamespace = "exptrack"

	DefaultSessionIdleTTL       = 30 * time.Minute
	DefaultSessionSweepInterval = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimitRPS * 2)
	}

	// ── gRPC ──────────────────────────────────────────────────────────────────
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Views ─────────────────────────────────────────────────────────────────
	if cfg.Views.Driver == "" {
		cfg.Views.Driver = DefaultViewsDriver
	}
	if cfg.Views.NamePrefix == "" {
		cfg.Views.NamePrefix = DefaultViewsNamePrefix
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" && len(cfg.Redis.ClusterAddrs) == 0 {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	// DB is an int; 0 is a valid explicit value so we cannot distinguish "not
	// set" from "set to 0".  We leave it as-is (0 is also the default).

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.ConsumerRetries == 0 {
		cfg.Kafka.ConsumerRetries = 3
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = 100 * time.Millisecond
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = time.Hour
	}
	if cfg.MinIO.RetentionDays == 0 {
		cfg.MinIO.RetentionDays = 7
	}
	if cfg.MinIO.ChartWidth == 0 {
		cfg.MinIO.ChartWidth = 800
	}
	if cfg.MinIO.ChartHeight == 0 {
		cfg.MinIO.ChartHeight = 450
	}

	// ── Upstream ──────────────────────────────────────────────────────────────
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Sessions ──────────────────────────────────────────────────────────────
	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = DefaultSessionIdleTTL
	}
	if cfg.Sessions.SweepInterval == 0 {
		cfg.Sessions.SweepInterval = DefaultSessionSweepInterval
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely from defaults.  The
// result passes Validate and runs with in-memory views and no external
// brokers.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Upstream.CacheTTL = DefaultUpstreamCacheTTL
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
