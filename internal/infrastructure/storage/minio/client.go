// Package minio stores rendered chart exports in an S3-compatible bucket and
// hands out presigned download links.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client used here.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	ExportsBucket   string        `mapstructure:"exports_bucket"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
	ExportRetention int           `mapstructure:"export_retention_days"`
}

var (
	ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")
	ErrUploadFailed      = errors.New(errors.ErrCodeExportFailed, "upload failed")
)

type MinIOClient struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient connects, creates the exports bucket if missing and installs
// its expiry rule.
func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	c := NewMinIOClientWithAPI(client, cfg, log)
	if err := c.EnsureBuckets(ctx); err != nil {
		return nil, err
	}
	c.SetupLifecycleRules(ctx)

	log.Info("MinIO client connected", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewMinIOClientWithAPI wraps an existing API without network checks.
func NewMinIOClientWithAPI(api MinIOAPI, cfg *MinIOConfig, log logging.Logger) *MinIOClient {
	applyDefaults(cfg)
	return &MinIOClient{client: api, config: cfg, logger: log}
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = time.Hour
	}
	if cfg.ExportsBucket == "" {
		cfg.ExportsBucket = "exptrack-exports"
	}
	if cfg.ExportRetention == 0 {
		cfg.ExportRetention = 7
	}
}

func (c *MinIOClient) EnsureBuckets(ctx context.Context) error {
	bucket := c.config.ExportsBucket
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create bucket").WithDetail(bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", bucket))
	return nil
}

// SetupLifecycleRules expires exports after ExportRetention days.  Failure is
// logged only: some S3 implementations reject lifecycle configuration.
func (c *MinIOClient) SetupLifecycleRules(ctx context.Context) {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     "exports-cleanup",
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(c.config.ExportRetention),
			},
		},
	}
	if err := c.client.SetBucketLifecycle(ctx, c.config.ExportsBucket, cfg); err != nil {
		c.logger.Warn("Failed to set lifecycle for exports bucket", logging.Err(err))
	}
}

// PutExport uploads data under key in the exports bucket.
func (c *MinIOClient) PutExport(ctx context.Context, key string, data []byte, contentType string) (minio.UploadInfo, error) {
	if c.isClosed() {
		return minio.UploadInfo{}, ErrMinIOClientClosed
	}
	info, err := c.client.PutObject(ctx, c.config.ExportsBucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return minio.UploadInfo{}, ErrUploadFailed.WithCause(err).WithDetail(key)
	}
	return info, nil
}

// RemoveExport deletes key from the exports bucket.
func (c *MinIOClient) RemoveExport(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrMinIOClientClosed
	}
	if err := c.client.RemoveObject(ctx, c.config.ExportsBucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to remove export").WithDetail(key)
	}
	return nil
}

// GeneratePresignedGetURL signs a download link.  A zero expiry uses the
// configured default.
func (c *MinIOClient) GeneratePresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if c.isClosed() {
		return "", ErrMinIOClientClosed
	}
	if expiry == 0 {
		expiry = c.config.PresignExpiry
	}
	u, err := c.client.PresignedGetObject(ctx, c.config.ExportsBucket, objectName, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign export url")
	}
	return u.String(), nil
}

// HealthCheck lists buckets and verifies the exports bucket exists.
func (c *MinIOClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	exists, err := c.client.BucketExists(ctx, c.config.ExportsBucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio bucket check failed")
	}
	if !exists {
		return errors.New(errors.ErrCodeServiceUnavailable, "exports bucket missing").WithDetail(c.config.ExportsBucket)
	}
	return nil
}

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MinIOClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
