// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package objectstore is the Object Store Client: listing keys under a
// prefix, fetching bodies and last-modified times, and storing uploads.
//
// S3Store talks to any S3-compatible service through minio-go.
// MemoryStore is an in-process implementation used by tests and local runs.
// CircuitBreakerStore wraps either with a gobreaker circuit breaker.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes one stored object.
type Object struct {
	Key          string    `json:"key"`
	LastModified time.Time `json:"last_modified"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
}

// ListOptions controls a single List call.
type ListOptions struct {
	// Delimiter groups keys sharing a prefix up to the delimiter into
	// CommonPrefixes. Empty means a recursive listing.
	Delimiter string

	// ContinuationToken resumes a truncated listing. Empty starts from the beginning.
	ContinuationToken string

	// MaxKeys bounds the page size. Zero uses the store default.
	MaxKeys int
}

// Page is one page of a listing. NextContinuationToken is empty on the last page.
type Page struct {
	Objects               []Object
	CommonPrefixes        []string
	NextContinuationToken string
}

// PutOptions carries object attributes for uploads.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is the object store port consumed by the rotation engine and the
// witness uploader.
type Store interface {
	// List returns one page of objects whose keys start with prefix, in
	// lexicographic key order.
	List(ctx context.Context, prefix string, opts ListOptions) (*Page, error)

	// Get opens an object for reading. The caller must close the reader.
	// Returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Put stores body under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error

	// Exists reports whether key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// ListAll lists every object under prefix, following continuation tokens
// until the listing is exhausted.
func ListAll(ctx context.Context, s Store, prefix string) ([]Object, error) {
	var (
		all   []Object
		token string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.List(ctx, prefix, ListOptions{ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		all = append(all, page.Objects...)
		if page.NextContinuationToken == "" {
			return all, nil
		}
		if page.NextContinuationToken == token {
			return nil, fmt.Errorf("list %s: continuation token did not advance", prefix)
		}
		token = page.NextContinuationToken
	}
}

// maxJSONSize bounds metadata documents read through GetJSON.
const maxJSONSize = 1 << 20

// GetJSON fetches key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	rc, _, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, maxJSONSize+1))
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) > maxJSONSize {
		return fmt.Errorf("read %s: document exceeds %d bytes", key, maxJSONSize)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// ListPrefixes returns the common prefixes one delimiter level below prefix,
// following continuation tokens.
func ListPrefixes(ctx context.Context, s Store, prefix, delimiter string) ([]string, error) {
	var (
		out   []string
		token string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.List(ctx, prefix, ListOptions{Delimiter: delimiter, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list prefixes %s: %w", prefix, err)
		}
		out = append(out, page.CommonPrefixes...)
		if page.NextContinuationToken == "" || page.NextContinuationToken == token {
			return out, nil
		}
		token = page.NextContinuationToken
	}
}
