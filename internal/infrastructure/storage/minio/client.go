// Package minio backs the artifact store with S3-compatible object storage
// for deployments where pipeline outputs must outlive the local filesystem.
package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// MinIOAPI is the slice of the minio-go client the store relies on, kept
// small so tests can fake it.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Config holds connection settings for the object store.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.Bucket == "" {
		c.Bucket = "disrupt-artifacts"
	}
}

// Client wraps a connected minio client bound to the artifact bucket.
type Client struct {
	api    MinIOAPI
	cfg    Config
	logger logging.Logger
}

// NewClient connects, verifies reachability, and ensures the artifact
// bucket exists.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	cfg.applyDefaults()

	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeInternal, "create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := api.ListBuckets(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeServiceUnavailable, "connect to minio")
	}

	c := &Client{api: api, cfg: cfg, logger: logger.Named("storage.minio")}
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("minio connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// newClientWithAPI injects a fake API in tests.
func newClientWithAPI(api MinIOAPI, cfg Config, logger logging.Logger) *Client {
	cfg.applyDefaults()
	return &Client{api: api, cfg: cfg, logger: logger}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeInternal, "check artifact bucket")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.cfg.Bucket, minio.MakeBucketOptions{Region: c.cfg.Region}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeInternal, "create artifact bucket")
	}
	c.logger.Info("artifact bucket created", logging.String("bucket", c.cfg.Bucket))
	return nil
}

// HealthCheck verifies the endpoint answers and the bucket is present.
func (c *Client) HealthCheck(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeServiceUnavailable, "minio health check")
	}
	if !exists {
		return appErrors.Newf(appErrors.ErrCodeServiceUnavailable, "artifact bucket %q missing", c.cfg.Bucket)
	}
	return nil
}
