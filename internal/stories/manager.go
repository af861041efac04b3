// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
manager.go - Rotation Manager Lifecycle

The manager owns the poll loop: one fleet pass shortly after start, then one
per interval. Admin requests go through the same manager so that a manual
sync, a full reset and a scheduled pass never overlap.

Thread Safety:
  - syncMu: serialises fleet passes and resets
  - mu: protects running and lastSync
*/

package stories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/models"
)

// ManagerConfig controls the poll loop.
type ManagerConfig struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// Manager runs the Fleet on a schedule.
type Manager struct {
	fleet *Fleet
	cfg   ManagerConfig

	lastSync time.Time
	running  bool
	mu       sync.RWMutex
	syncMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a stopped manager.
func NewManager(fleet *Fleet, cfg ManagerConfig) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	logging.Info().
		Dur("interval", cfg.Interval).
		Dur("initial_delay", cfg.InitialDelay).
		Msg("Rotation manager config loaded")
	return &Manager{
		fleet:    fleet,
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
}

// Start launches the poll loop in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("rotation manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logging.Info().Msg("Starting rotation manager...")

	m.wg.Add(1)
	go m.loop(ctx)
	return nil
}

// Stop ends the poll loop and waits for an in-flight pass to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("rotation manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping rotation manager...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Rotation manager stopped")
	return nil
}

// Running reports whether the poll loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	if m.cfg.InitialDelay > 0 {
		timer := time.NewTimer(m.cfg.InitialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.stopChan:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	m.scheduledPass(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.scheduledPass(ctx)
		}
	}
}

func (m *Manager) scheduledPass(ctx context.Context) {
	if _, err := m.run(ctx, func(ctx context.Context) (*models.SyncReport, error) {
		return m.fleet.SyncAll(ctx, TriggerSchedule)
	}); err != nil {
		logging.Error().Err(err).Msg("Scheduled sync failed")
	}
}

// run executes one fleet operation under syncMu with its own correlation ID.
func (m *Manager) run(ctx context.Context, op func(context.Context) (*models.SyncReport, error)) (*models.SyncReport, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	report, err := op(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()
	return report, nil
}

// TriggerSync runs one fleet pass now.
func (m *Manager) TriggerSync(ctx context.Context) (*models.SyncReport, error) {
	return m.run(ctx, func(ctx context.Context) (*models.SyncReport, error) {
		return m.fleet.SyncAll(ctx, TriggerManual)
	})
}

// ResetAll retires every post, clears the ledger and republishes the fleet.
func (m *Manager) ResetAll(ctx context.Context) (*models.SyncReport, error) {
	return m.run(ctx, m.fleet.ResetAll)
}

// ResetStory retires and republishes one story.
func (m *Manager) ResetStory(ctx context.Context, storyID string) (Result, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.fleet.engine.ResetStory(logging.ContextWithNewCorrelationID(ctx), storyID)
}

// Inspect is a read-only view of one story.
func (m *Manager) Inspect(ctx context.Context, storyID string) (*models.StoryInspection, error) {
	return m.fleet.engine.Inspect(ctx, storyID)
}

// Ledger returns every ledger entry.
func (m *Manager) Ledger(ctx context.Context) (map[string]models.LedgerEntry, error) {
	return m.fleet.engine.ledger.All(ctx)
}

// LastSync returns when the last fleet pass finished; zero before the first.
func (m *Manager) LastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}
