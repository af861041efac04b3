// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/metrics"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
)

var storyDirRe = regexp.MustCompile(`(?i)^stories/(Story\d+)/`)

// Sync triggers recorded in SyncReport.Trigger.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerReset    = "reset"
)

// FleetConfig holds the fleet driver's settings.
type FleetConfig struct {
	// DefaultStories is used when discovery finds nothing.
	DefaultStories []string

	// StoryTimeout bounds each rotation. Zero means no deadline.
	StoryTimeout time.Duration

	Events EventPublisher
}

// Fleet is the Fleet Sync Driver.
type Fleet struct {
	store  objectstore.Store
	engine *Engine
	cfg    FleetConfig
}

// NewFleet creates a driver over engine.
func NewFleet(store objectstore.Store, engine *Engine, cfg FleetConfig) *Fleet {
	return &Fleet{store: store, engine: engine, cfg: cfg}
}

// Engine returns the rotation engine the fleet drives.
func (f *Fleet) Engine() *Engine {
	return f.engine
}

// Discover lists the story folders under stories/ and returns their
// identifiers in first-seen order. When none match, it returns the
// configured defaults and fromDefaults is true.
func (f *Fleet) Discover(ctx context.Context) (ids []string, fromDefaults bool, err error) {
	prefixes, err := objectstore.ListPrefixes(ctx, f.store, storiesRoot, "/")
	if err != nil {
		return nil, false, fmt.Errorf("discover stories: %w", err)
	}

	seen := make(map[string]bool)
	for _, p := range prefixes {
		m := storyDirRe.FindStringSubmatch(p)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	if len(ids) == 0 {
		return append([]string(nil), f.cfg.DefaultStories...), true, nil
	}
	return ids, false, nil
}

// SyncAll rotates every discovered story in order. One story failing never
// stops the pass; only a discovery failure returns an error.
func (f *Fleet) SyncAll(ctx context.Context, trigger string) (*models.SyncReport, error) {
	start := time.Now()
	ctx = ensureCorrelationID(ctx)
	log := logging.Ctx(ctx)

	ids, fromDefaults, err := f.Discover(ctx)
	if err != nil {
		metrics.RecordFleetSync(time.Since(start), 0, err)
		log.Error().Err(err).Str("trigger", trigger).Msg("Fleet sync aborted")
		return nil, err
	}
	if fromDefaults {
		log.Info().Strs("stories", ids).Msg("No story folders found, using defaults")
	}

	report := &models.SyncReport{
		Trigger:      trigger,
		StartedAt:    start.UTC(),
		Stories:      ids,
		FromDefaults: fromDefaults,
		Results:      make([]models.RotateResult, 0, len(ids)),
		Counts:       make(map[string]int),
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(ids)-len(report.Results)).Msg("Fleet sync cancelled")
			break
		}
		res, err := f.rotateWithTimeout(ctx, id)
		report.Results = append(report.Results, ToRotateResult(res, err))
		report.Counts[string(res.Outcome)]++
	}

	report.DurationMS = time.Since(start).Milliseconds()
	metrics.RecordFleetSync(time.Since(start), len(ids), nil)
	if all, err := f.engine.ledger.All(ctx); err == nil {
		metrics.SetLedgerEntries(len(all))
	}

	log.Info().Str("trigger", trigger).Int("stories", len(ids)).
		Int("rotated", report.Counts[string(OutcomeRotated)]).
		Int("failed", report.Counts[string(OutcomeFailed)]+report.Counts[string(OutcomeSkipped)]).
		Int64("duration_ms", report.DurationMS).Msg("Fleet sync complete")

	if f.cfg.Events != nil {
		if err := f.cfg.Events.Publish(ctx, models.TopicFleetSynced, report); err != nil {
			log.Warn().Err(err).Msg("Publishing sync event failed")
		}
	}
	return report, nil
}

// ResetAll retires every recorded post, clears the ledger and syncs the
// fleet from scratch.
func (f *Fleet) ResetAll(ctx context.Context) (*models.SyncReport, error) {
	ctx = ensureCorrelationID(ctx)
	if _, err := f.engine.RetireAll(ctx); err != nil {
		return nil, err
	}
	return f.SyncAll(ctx, TriggerReset)
}

func (f *Fleet) rotateWithTimeout(ctx context.Context, storyID string) (Result, error) {
	if f.cfg.StoryTimeout <= 0 {
		return f.engine.Rotate(ctx, storyID)
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.StoryTimeout)
	defer cancel()
	return f.engine.Rotate(ctx, storyID)
}

// ToRotateResult converts an engine result for API responses.
func ToRotateResult(res Result, err error) models.RotateResult {
	out := models.RotateResult{StoryID: res.StoryID, Outcome: string(res.Outcome), Ref: res.Ref}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func ensureCorrelationID(ctx context.Context) context.Context {
	if logging.CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithNewCorrelationID(ctx)
}
