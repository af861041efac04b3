// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/soapbox/internal/config"
)

const (
	// DefaultMinIOImage is pinned so listing behaviour does not drift between runs.
	DefaultMinIOImage = "minio/minio:RELEASE.2024-10-13T13-34-11Z"

	// DefaultMinIOPort is the S3 API port inside the container.
	DefaultMinIOPort = "9000"

	DefaultMinIOAccessKey = "soapbox"
	DefaultMinIOSecretKey = "soapbox-secret"
	DefaultMinIOBucket    = "stories-test"
)

// MinIOContainer is a running MinIO server with Bucket created.
type MinIOContainer struct {
	testcontainers.Container
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

// MinIOOption configures the MinIO container.
type MinIOOption func(*minioConfig)

type minioConfig struct {
	image        string
	bucket       string
	startTimeout time.Duration
}

// WithMinIOImage sets a custom MinIO image.
func WithMinIOImage(image string) MinIOOption {
	return func(c *minioConfig) {
		c.image = image
	}
}

// WithBucket sets the bucket created at startup.
func WithBucket(bucket string) MinIOOption {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

// WithMinIOStartTimeout bounds the wait for the health endpoint.
func WithMinIOStartTimeout(timeout time.Duration) MinIOOption {
	return func(c *minioConfig) {
		c.startTimeout = timeout
	}
}

// NewMinIOContainer starts MinIO and creates the configured bucket.
func NewMinIOContainer(ctx context.Context, opts ...MinIOOption) (*MinIOContainer, error) {
	cfg := &minioConfig{
		image:        DefaultMinIOImage,
		bucket:       DefaultMinIOBucket,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultMinIOPort + "/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     DefaultMinIOAccessKey,
			"MINIO_ROOT_PASSWORD": DefaultMinIOSecretKey,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultMinIOPort+"/tcp"),
			wait.ForHTTP("/minio/health/live").WithPort(DefaultMinIOPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultMinIOPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	m := &MinIOContainer{
		Container: container,
		Endpoint:  fmt.Sprintf("%s:%s", host, port.Port()),
		Bucket:    cfg.bucket,
		AccessKey: DefaultMinIOAccessKey,
		SecretKey: DefaultMinIOSecretKey,
	}
	if err := m.createBucket(ctx); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, err
	}
	return m, nil
}

// Client returns a raw minio client for seeding fixtures.
func (m *MinIOContainer) Client() (*minio.Client, error) {
	return minio.New(m.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(m.AccessKey, m.SecretKey, ""),
		Secure: false,
	})
}

// StorageConfig returns a config pointing objectstore.NewS3Store at the container.
func (m *MinIOContainer) StorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:          m.Bucket,
		Region:          "us-east-1",
		Endpoint:        m.Endpoint,
		UseSSL:          false,
		AccessKeyID:     m.AccessKey,
		SecretAccessKey: m.SecretKey,
		ListPageSize:    1000,
	}
}

// createBucket retries until MinIO accepts writes; the health endpoint can
// answer before the object layer is ready.
func (m *MinIOContainer) createBucket(ctx context.Context) error {
	client, err := m.Client()
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	var lastErr error
	ready := func() bool {
		lastErr = client.MakeBucket(ctx, m.Bucket, minio.MakeBucketOptions{Region: "us-east-1"})
		return lastErr == nil
	}
	if err := WaitForReady(ctx, ready, 30*time.Second); err != nil {
		return fmt.Errorf("create bucket %s: %w (last error: %v)", m.Bucket, err, lastErr)
	}
	return nil
}
