// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package objectstore

import (
	"context"
	"errors"
	"io"

	"github.com/tomtom215/soapbox/internal/resilience"
)

// CircuitBreakerStore wraps a Store with a circuit breaker. Missing keys are
// an expected answer, not a failure, so absent metadata.json never trips it.
type CircuitBreakerStore struct {
	store Store
	cb    *resilience.Breaker
}

// NewCircuitBreakerStore wraps store with a breaker named "objectstore".
func NewCircuitBreakerStore(store Store) *CircuitBreakerStore {
	return &CircuitBreakerStore{
		store: store,
		cb: resilience.New("objectstore", resilience.Settings{
			IsExpected: func(err error) bool { return errors.Is(err, ErrNotFound) },
		}),
	}
}

// Unwrap returns the wrapped store.
func (s *CircuitBreakerStore) Unwrap() Store {
	return s.store
}

// State returns the breaker state for health reporting.
func (s *CircuitBreakerStore) State() string {
	return s.cb.State()
}

// List implements Store.
func (s *CircuitBreakerStore) List(ctx context.Context, prefix string, opts ListOptions) (*Page, error) {
	return resilience.Execute(s.cb, func() (*Page, error) {
		return s.store.List(ctx, prefix, opts)
	})
}

type getResult struct {
	rc  io.ReadCloser
	obj Object
}

// Get implements Store.
func (s *CircuitBreakerStore) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	res, err := resilience.Execute(s.cb, func() (getResult, error) {
		rc, obj, err := s.store.Get(ctx, key)
		return getResult{rc: rc, obj: obj}, err
	})
	if err != nil {
		return nil, Object{}, err
	}
	return res.rc, res.obj, nil
}

// Put implements Store.
func (s *CircuitBreakerStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error {
	return s.cb.Do(func() error {
		return s.store.Put(ctx, key, body, size, opts)
	})
}

// Exists implements Store.
func (s *CircuitBreakerStore) Exists(ctx context.Context, key string) (bool, error) {
	return resilience.Execute(s.cb, func() (bool, error) {
		return s.store.Exists(ctx, key)
	})
}
