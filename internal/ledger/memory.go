// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package ledger

import (
	"context"
	"sync"

	"github.com/tomtom215/soapbox/internal/models"
)

// MemoryLedger keeps entries in a map. Nothing survives a restart.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]models.LedgerEntry
	closed  bool
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]models.LedgerEntry)}
}

func (m *MemoryLedger) Get(_ context.Context, storyID string) (*models.LedgerEntry, error) {
	if err := validID(storyID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	e, ok := m.entries[storyID]
	if !ok {
		return nil, nil
	}
	return cloneEntry(e), nil
}

func (m *MemoryLedger) Set(_ context.Context, storyID string, entry models.LedgerEntry) error {
	if err := validID(storyID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries[storyID] = *cloneEntry(entry)
	return nil
}

func (m *MemoryLedger) Delete(_ context.Context, storyID string) error {
	if err := validID(storyID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.entries, storyID)
	return nil
}

func (m *MemoryLedger) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries = make(map[string]models.LedgerEntry)
	return nil
}

func (m *MemoryLedger) All(_ context.Context) (map[string]models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]models.LedgerEntry, len(m.entries))
	for id, e := range m.entries {
		out[id] = *cloneEntry(e)
	}
	return out, nil
}

func (m *MemoryLedger) Backend() string { return "memory" }

func (m *MemoryLedger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// cloneEntry copies e so callers cannot mutate stored refs.
func cloneEntry(e models.LedgerEntry) *models.LedgerEntry {
	out := e
	if e.Ref != nil {
		ref := *e.Ref
		out.Ref = &ref
	}
	return &out
}
