// Package config provides configuration loading, defaults, and validation for
// the ExpTrack service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "EXPTRACK"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigInvalid      = errors.New("config: invalid configuration")
)

// envKeys lists every leaf key that may be supplied purely through the
// environment.  viper.AutomaticEnv only resolves keys it already knows about,
// so LoadFromEnv binds these explicitly.
var envKeys = []string{
	"server.host", "server.port", "server.read_timeout", "server.write_timeout",
	"server.idle_timeout", "server.max_body_size", "server.shutdown_timeout", "server.cors_origins",
	"server.api_keys", "server.rate_limit_rps", "server.rate_limit_burst",
	"grpc.enabled", "grpc.host", "grpc.port",
	"log.level", "log.format", "log.output_paths", "log.development",
	"views.driver", "views.name_prefix", "views.publish_events",
	"redis.mode", "redis.addr", "redis.cluster_addrs", "redis.username", "redis.password", "redis.db",
	"redis.pool_size", "redis.min_idle_conns", "redis.dial_timeout", "redis.read_timeout",
	"redis.write_timeout", "redis.key_prefix",
	"database.host", "database.port", "database.user", "database.password", "database.db_name",
	"database.ssl_mode", "database.max_conns", "database.max_idle_conns", "database.conn_max_lifetime",
	"database.conn_max_idle_time", "database.statement_timeout", "database.auto_migrate",
	"kafka.enabled", "kafka.brokers", "kafka.group_id", "kafka.auto_offset_reset",
	"kafka.producer_retries", "kafka.consumer_retries", "kafka.retry_backoff",
	"kafka.auto_create_topics", "kafka.replication_factor", "kafka.num_partitions",
	"kafka.sasl_enabled", "kafka.sasl_mechanism", "kafka.sasl_username", "kafka.sasl_password",
	"kafka.tls_enabled",
	"minio.enabled", "minio.endpoint", "minio.access_key", "minio.secret_key", "minio.region",
	"minio.bucket", "minio.use_ssl", "minio.presign_expiry", "minio.retention_days",
	"minio.chart_width", "minio.chart_height",
	"upstream.base_url", "upstream.api_key", "upstream.timeout", "upstream.cache_ttl", "upstream.data_file",
	"metrics.namespace", "metrics.enable_process_metrics", "metrics.enable_go_metrics",
	"sessions.idle_ttl", "sessions.sweep_interval", "sessions.max_sessions",
}

// newViper builds a pre-configured Viper instance with the service's standard
// settings: YAML file type, EXPTRACK_ env prefix, automatic env binding, and
// a key replacer that maps "." → "_" so that nested keys like "redis.addr"
// resolve to "EXPTRACK_REDIS_ADDR".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	v.SetDefault("upstream.cache_ttl", DefaultUpstreamCacheTTL)
	return v
}

// Load reads the YAML file at configPath, merges any EXPTRACK_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if err := readFile(v, configPath); err != nil {
		return nil, err
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from EXPTRACK_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	EXPTRACK_<SECTION>_<FIELD>   e.g.  EXPTRACK_VIEWS_DRIVER, EXPTRACK_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func readFile(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrConfigFileNotFound, configPath, err)
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrConfigParseError, configPath, err)
	}
	return nil
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is written.  Callers apply only the safe
// subset of changes at runtime (log level, cache TTL).
//
// Watch is non-blocking; viper owns the watcher goroutine.  A change that
// fails to parse or validate is reported to onError, when non-nil, and
// onChange is skipped.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	if err := readFile(v, configPath); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is a convenience wrapper around Load that panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
