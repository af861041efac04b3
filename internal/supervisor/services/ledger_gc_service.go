// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package services

import (
	"context"
	"time"

	"github.com/tomtom215/soapbox/internal/logging"
)

// GarbageCollector matches ledger.Collector.
type GarbageCollector interface {
	RunGC() error
}

// LedgerGCService periodically reclaims space in ledger backends that need
// it. A failed collection is logged and retried on the next tick; it never
// restarts the service.
type LedgerGCService struct {
	collector GarbageCollector
	interval  time.Duration
	name      string
}

// NewLedgerGCService creates a GC service. A non-positive interval
// defaults to 10 minutes.
func NewLedgerGCService(collector GarbageCollector, interval time.Duration) *LedgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &LedgerGCService{
		collector: collector,
		interval:  interval,
		name:      "ledger-gc",
	}
}

// Serve implements suture.Service.
func (l *LedgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := l.collector.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Ledger GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Ledger GC complete")
		}
	}
}

// String implements fmt.Stringer.
func (l *LedgerGCService) String() string {
	return l.name
}
