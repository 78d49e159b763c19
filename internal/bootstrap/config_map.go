package bootstrap

import (
	"time"

	"github.com/turtacn/ExpTrack/internal/config"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/ExpTrack/internal/infrastructure/database/redis"
	"github.com/turtacn/ExpTrack/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ExpTrack/internal/infrastructure/storage/minio"
	"github.com/turtacn/ExpTrack/internal/infrastructure/upstream"
	"github.com/turtacn/ExpTrack/internal/interfaces/http/middleware"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration mapping
//
// Each infrastructure package owns its own config struct.  The functions
// below translate the application configuration into them.
// ─────────────────────────────────────────────────────────────────────────────

const rateLimitCleanup = 5 * time.Minute

func redisConfig(c config.RedisConfig) *redis.RedisConfig {
	return &redis.RedisConfig{
		Mode:         c.Mode,
		Addr:         c.Addr,
		ClusterAddrs: c.ClusterAddrs,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}
}

func postgresConfig(c config.DatabaseConfig) postgres.PostgresConfig {
	return postgres.PostgresConfig{
		Host:             c.Host,
		Port:             c.Port,
		Database:         c.DBName,
		Username:         c.User,
		Password:         c.Password,
		SSLMode:          c.SSLMode,
		MaxOpenConns:     c.MaxConns,
		MaxIdleConns:     c.MaxIdleConns,
		ConnMaxLifetime:  c.ConnMaxLifetime,
		ConnMaxIdleTime:  c.ConnMaxIdleTime,
		StatementTimeout: c.StatementTimeout,
		AutoMigrate:      c.AutoMigrate,
	}
}

func securityConfig(c config.KafkaConfig) kafka.SecurityConfig {
	return kafka.SecurityConfig{
		SASLEnabled:   c.SASLEnabled,
		SASLMechanism: c.SASLMechanism,
		SASLUsername:  c.SASLUsername,
		SASLPassword:  c.SASLPassword,
		TLSEnabled:    c.TLSEnabled,
	}
}

func producerConfig(c config.KafkaConfig) kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:    c.Brokers,
		MaxRetries: c.ProducerRetries,
		Security:   securityConfig(c),
	}
}

func consumerConfig(c config.KafkaConfig, topics ...string) kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:         c.Brokers,
		GroupID:         c.GroupID,
		Topics:          topics,
		AutoOffsetReset: c.AutoOffsetReset,
		Security:        securityConfig(c),
		Retry: kafka.RetryConfig{
			MaxRetries:      c.ConsumerRetries,
			RetryBackoff:    c.RetryBackoff,
			MaxRetryBackoff: 30 * c.RetryBackoff,
			DeadLetterTopic: kafka.TopicDeadLetter,
		},
	}
}

// topicConfigs returns the default topics with the configured partition and
// replication overrides applied.
func topicConfigs(c config.KafkaConfig) []kafka.TopicConfig {
	topics := kafka.DefaultTopics()
	for i := range topics {
		if c.NumPartitions > 0 {
			topics[i].NumPartitions = c.NumPartitions
		}
		if c.ReplicationFactor > 0 {
			topics[i].ReplicationFactor = c.ReplicationFactor
		}
	}
	return topics
}

func minioConfig(c config.MinIOConfig) *minio.MinIOConfig {
	return &minio.MinIOConfig{
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKey,
		SecretAccessKey: c.SecretKey,
		UseSSL:          c.UseSSL,
		Region:          c.Region,
		ExportsBucket:   c.Bucket,
		PresignExpiry:   c.PresignExpiry,
		ExportRetention: c.RetentionDays,
	}
}

func upstreamConfig(c config.UpstreamConfig) upstream.Config {
	return upstream.Config{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
}

func collectorConfig(c config.MetricsConfig) prometheus.CollectorConfig {
	return prometheus.CollectorConfig{
		Namespace:            c.Namespace,
		EnableProcessMetrics: c.EnableProcessMetrics,
		EnableGoMetrics:      c.EnableGoMetrics,
	}
}

func corsConfig(c config.ServerConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(c.CORSOrigins) > 0 {
		cors.AllowedOrigins = c.CORSOrigins
	}
	return cors
}

// rateLimitConfig returns nil when rate limiting is disabled.  A missing
// burst defaults to twice the rate.
func rateLimitConfig(c config.ServerConfig) *middleware.RateLimitConfig {
	if c.RateLimitRPS <= 0 {
		return nil
	}
	rl := middleware.DefaultRateLimitConfig()
	rl.RequestsPerSecond = c.RateLimitRPS
	rl.BurstSize = c.RateLimitBurst
	if rl.BurstSize <= 0 {
		rl.BurstSize = int(2 * c.RateLimitRPS)
		if rl.BurstSize < 1 {
			rl.BurstSize = 1
		}
	}
	rl.CleanupInterval = rateLimitCleanup
	return &rl
}

//Personal.AI order the ending
