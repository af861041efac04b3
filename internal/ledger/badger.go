// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/models"
)

const (
	prefixStory = "story:"

	// gcDiscardRatio is the value log rewrite threshold passed to badger.
	gcDiscardRatio = 0.5

	closeTimeout = 30 * time.Second
)

// BadgerLedger stores one JSON value per story under "story:{id}".
type BadgerLedger struct {
	db   *badger.DB
	path string

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens (or creates) a badger ledger at path.
func OpenBadger(path string, syncWrites bool) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = syncWrites
	opts.NumCompactors = 2
	opts.MemTableSize = 16 << 20
	opts.ValueLogFileSize = 64 << 20

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerLedger{db: db, path: path}, nil
}

// OpenBadgerInMemory opens a badger ledger with no files, for tests.
func OpenBadgerInMemory() (*BadgerLedger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}
	return &BadgerLedger{db: db}, nil
}

func (b *BadgerLedger) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

func storyKey(storyID string) []byte {
	return []byte(prefixStory + storyID)
}

func (b *BadgerLedger) Get(_ context.Context, storyID string) (*models.LedgerEntry, error) {
	if err := validID(storyID); err != nil {
		return nil, err
	}
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var entry *models.LedgerEntry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storyKey(storyID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e models.LedgerEntry
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("decode entry: %w", err)
			}
			entry = &e
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", storyID, err)
	}
	return entry, nil
}

func (b *BadgerLedger) Set(_ context.Context, storyID string, entry models.LedgerEntry) error {
	if err := validID(storyID); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storyKey(storyID), data)
	}); err != nil {
		return fmt.Errorf("set %s: %w", storyID, err)
	}
	return nil
}

func (b *BadgerLedger) Delete(_ context.Context, storyID string) error {
	if err := validID(storyID); err != nil {
		return err
	}
	if err := b.checkOpen(); err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storyKey(storyID))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", storyID, err)
	}
	return nil
}

func (b *BadgerLedger) Clear(_ context.Context) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if err := b.db.DropPrefix([]byte(prefixStory)); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}

// All iterates every story key inside one read transaction, so the result is
// a consistent snapshot.
func (b *BadgerLedger) All(ctx context.Context) (map[string]models.LedgerEntry, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	out := make(map[string]models.LedgerEntry)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixStory)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			storyID := string(item.Key()[len(prefix):])

			var e models.LedgerEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				logging.Warn().Err(err).Str("story_id", storyID).Msg("Skipping undecodable ledger entry")
				continue
			}
			out[storyID] = e
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return out, nil
}

func (b *BadgerLedger) Backend() string { return "badger" }

// RunGC rewrites value log files until badger reports nothing left to reclaim.
func (b *BadgerLedger) RunGC() error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	for {
		err := b.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close flushes and closes the database, giving up after closeTimeout.
func (b *BadgerLedger) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Str("path", b.path).Msg("Ledger closed")
		return nil
	case <-time.After(closeTimeout):
		logging.Warn().Dur("timeout", closeTimeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", closeTimeout)
	}
}
