// Package config defines all configuration structures for the ExpTrack
// service.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	APIKeys         []string      `mapstructure:"api_keys"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

// GRPCConfig holds the gRPC health endpoint parameters.
type GRPCConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
	Development bool     `mapstructure:"development"`
}

// ViewsConfig selects the saved-view store.
type ViewsConfig struct {
	Driver     string `mapstructure:"driver"` // "memory" | "redis" | "postgres"
	NamePrefix string `mapstructure:"name_prefix"`
	Publish    bool   `mapstructure:"publish_events"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "cluster"
	Addr         string        `mapstructure:"addr"`
	ClusterAddrs []string      `mapstructure:"cluster_addrs"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxConns         int           `mapstructure:"max_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries   int           `mapstructure:"producer_retries"`
	ConsumerRetries   int           `mapstructure:"consumer_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	NumPartitions     int           `mapstructure:"num_partitions"`
	SASLEnabled       bool          `mapstructure:"sasl_enabled"`
	SASLMechanism     string        `mapstructure:"sasl_mechanism"`
	SASLUsername      string        `mapstructure:"sasl_username"`
	SASLPassword      string        `mapstructure:"sasl_password"`
	TLSEnabled        bool          `mapstructure:"tls_enabled"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Region        string        `mapstructure:"region"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	RetentionDays int           `mapstructure:"retention_days"`
	ChartWidth    int           `mapstructure:"chart_width"`
	ChartHeight   int           `mapstructure:"chart_height"`
}

// UpstreamConfig points at the experiment-tracking backend that serves
// experiment lists and metric logs.
type UpstreamConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables the payload cache
	DataFile string        `mapstructure:"data_file"`
}

// MetricsConfig holds Prometheus collector parameters.
type MetricsConfig struct {
	Namespace            string `mapstructure:"namespace"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// SessionsConfig bounds dashboard session lifetime.
type SessionsConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxSessions   int           `mapstructure:"max_sessions"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Log      LogConfig      `mapstructure:"log"`
	Views    ViewsConfig    `mapstructure:"views"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Sessions SessionsConfig `mapstructure:"sessions"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must not be negative")
	}
	if c.GRPC.Enabled {
		if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
			return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
		}
		if c.GRPC.Port == c.Server.Port {
			return fmt.Errorf("config: grpc.port must differ from server.port (%d)", c.Server.Port)
		}
	}

	// Views
	switch c.Views.Driver {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 {
			return fmt.Errorf("config: redis.addr is required when views.driver is redis")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required when views.driver is postgres")
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when views.driver is postgres")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when views.driver is postgres")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
		}
	default:
		return fmt.Errorf("config: views.driver %q is invalid; expected memory|redis|postgres", c.Views.Driver)
	}

	// Redis
	switch c.Redis.Mode {
	case "standalone", "cluster":
	default:
		return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|cluster", c.Redis.Mode)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
		switch c.Kafka.AutoOffsetReset {
		case "earliest", "latest":
		default:
			return fmt.Errorf("config: kafka.auto_offset_reset %q is invalid; expected earliest|latest", c.Kafka.AutoOffsetReset)
		}
	}

	// MinIO
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}

	// Upstream
	if c.Upstream.BaseURL != "" {
		u, err := url.Parse(c.Upstream.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: upstream.base_url %q is not an absolute URL", c.Upstream.BaseURL)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("config: upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if c.Upstream.CacheTTL < 0 {
		return fmt.Errorf("config: upstream.cache_ttl must be ≥ 0, got %s", c.Upstream.CacheTTL)
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required")
	}

	// Sessions
	if c.Sessions.IdleTTL <= 0 {
		return fmt.Errorf("config: sessions.idle_ttl must be positive, got %s", c.Sessions.IdleTTL)
	}
	if c.Sessions.MaxSessions < 0 {
		return fmt.Errorf("config: sessions.max_sessions must be ≥ 0, got %d", c.Sessions.MaxSessions)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
