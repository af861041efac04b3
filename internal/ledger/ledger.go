// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package ledger persists, per story, the cycle key that was last published
// and the platform ref of the post that represents it.
//
// The ledger is the only durable state the rotation engine owns. Every
// backend guarantees read-after-write consistency within the process; none
// of them serialise concurrent rotations of the same story, which is the
// engine's job.
//
// Backends:
//
//   - badger: embedded LSM store, one key per story (default)
//   - sqlite: a single story_ledger table through database/sql
//   - memory: process-local map for tests and dry runs
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tomtom215/soapbox/internal/config"
	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/models"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("ledger is closed")

	// ErrEmptyStoryID is returned when a story identifier is blank.
	ErrEmptyStoryID = errors.New("story id cannot be empty")
)

// Ledger is the Persistent Cycle Ledger.
type Ledger interface {
	// Get returns the entry for storyID, or nil with no error when absent.
	Get(ctx context.Context, storyID string) (*models.LedgerEntry, error)

	// Set replaces the entry for storyID.
	Set(ctx context.Context, storyID string, entry models.LedgerEntry) error

	// Delete removes the entry for storyID. Deleting an absent entry is not an error.
	Delete(ctx context.Context, storyID string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// All returns a snapshot of every entry keyed by story.
	All(ctx context.Context) (map[string]models.LedgerEntry, error)

	// Backend names the storage engine for health reporting.
	Backend() string

	Close() error
}

// Collector is implemented by backends that need periodic space reclamation.
type Collector interface {
	RunGC() error
}

// Open creates the backend selected by cfg.Backend under cfg.DataDir and
// imports a legacy JSON ledger when one is present.
func Open(ctx context.Context, cfg *config.LedgerConfig) (Ledger, error) {
	var (
		l   Ledger
		err error
	)
	switch cfg.Backend {
	case "memory":
		l = NewMemoryLedger()
	case "sqlite":
		if err = os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		l, err = OpenSQLite(cfg.Path())
	case "badger", "":
		if err = os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		l, err = OpenBadger(cfg.Path(), cfg.SyncWrites)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Backend != "memory" {
		n, err := ImportLegacyFile(ctx, l, cfg.LegacyFile())
		if err != nil {
			// Not fatal: stories missing from the ledger are republished.
			logging.Warn().Err(err).Str("file", cfg.LegacyFile()).Msg("Legacy ledger import failed")
		} else if n > 0 {
			logging.Info().Int("entries", n).Str("file", cfg.LegacyFile()).Msg("Imported legacy ledger")
		}
	}

	logging.Info().Str("backend", l.Backend()).Str("path", cfg.Path()).Msg("Ledger opened")
	return l, nil
}

func validID(storyID string) error {
	if storyID == "" {
		return ErrEmptyStoryID
	}
	return nil
}
