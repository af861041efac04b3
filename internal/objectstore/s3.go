// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/soapbox/internal/config"
	"github.com/tomtom215/soapbox/internal/metrics"
)

// S3Store is a Store backed by an S3-compatible bucket.
type S3Store struct {
	core     *minio.Core
	bucket   string
	pageSize int
}

// NewS3Store creates a client for cfg.Bucket. Static keys are used when set,
// otherwise the AWS environment, shared credentials file and instance IAM
// are tried in that order.
func NewS3Store(cfg *config.StorageConfig) (*S3Store, error) {
	var creds *credentials.Credentials
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client for %s: %w", cfg.Endpoint, err)
	}

	pageSize := cfg.ListPageSize
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}

	return &S3Store{core: core, bucket: cfg.Bucket, pageSize: pageSize}, nil
}

// Bucket returns the bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// List implements Store using ListObjectsV2 with explicit continuation tokens.
func (s *S3Store) List(ctx context.Context, prefix string, opts ListOptions) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = s.pageSize
	}

	res, err := s.core.ListObjectsV2(s.bucket, prefix, "", opts.ContinuationToken, opts.Delimiter, maxKeys)
	metrics.RecordObjectStoreRequest("list", err, false)
	if err != nil {
		return nil, fmt.Errorf("s3 list %s: %w", prefix, err)
	}

	page := &Page{Objects: make([]Object, 0, len(res.Contents))}
	for i := range res.Contents {
		info := &res.Contents[i]
		page.Objects = append(page.Objects, Object{
			Key:          info.Key,
			LastModified: info.LastModified,
			Size:         info.Size,
			ContentType:  info.ContentType,
		})
	}
	for _, cp := range res.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, cp.Prefix)
	}
	if res.IsTruncated {
		page.NextContinuationToken = res.NextContinuationToken
	}
	return page, nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := s.core.Client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		err = translateError(err)
		metrics.RecordObjectStoreRequest("get", err, errors.Is(err, ErrNotFound))
		return nil, Object{}, fmt.Errorf("s3 get %s: %w", key, err)
	}

	// GetObject is lazy; Stat performs the request and surfaces NoSuchKey.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		err = translateError(err)
		metrics.RecordObjectStoreRequest("get", err, errors.Is(err, ErrNotFound))
		return nil, Object{}, fmt.Errorf("s3 get %s: %w", key, err)
	}
	metrics.RecordObjectStoreRequest("get", nil, false)

	return obj, Object{
		Key:          info.Key,
		LastModified: info.LastModified,
		Size:         info.Size,
		ContentType:  info.ContentType,
	}, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error {
	_, err := s.core.Client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	metrics.RecordObjectStoreRequest("put", err, false)
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// Exists implements Store.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.core.Client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		err = translateError(err)
		notFound := errors.Is(err, ErrNotFound)
		metrics.RecordObjectStoreRequest("stat", err, notFound)
		if notFound {
			return false, nil
		}
		return false, fmt.Errorf("s3 stat %s: %w", key, err)
	}
	metrics.RecordObjectStoreRequest("stat", nil, false)
	return true, nil
}

// Ping checks that the bucket exists and credentials are accepted.
func (s *S3Store) Ping(ctx context.Context) error {
	ok, err := s.core.Client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket check %s: %w", s.bucket, err)
	}
	if !ok {
		return fmt.Errorf("s3 bucket %s does not exist", s.bucket)
	}
	return nil
}

// translateError maps S3 missing-key responses onto ErrNotFound.
func translateError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Message)
	}
	return err
}
