// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/soapbox/internal/ledger"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
	"github.com/tomtom215/soapbox/internal/platform"
)

var (
	t1 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
	t3 = t2.Add(time.Hour)
)

const testChannel = "breaking-1"

type fixture struct {
	store   *objectstore.MemoryStore
	poster  *platform.MockPoster
	ledger  ledger.Ledger
	events  *recordingPublisher
	tempDir string
	engine  *Engine
}

func newFixture(t *testing.T, forum bool) *fixture {
	t.Helper()
	f := &fixture{
		store:   objectstore.NewMemoryStore(0),
		poster:  platform.NewMockPoster(testChannel, forum),
		ledger:  ledger.NewMemoryLedger(),
		events:  &recordingPublisher{},
		tempDir: t.TempDir(),
	}
	f.engine = NewEngine(f.store, f.poster, f.ledger, EngineConfig{
		ChannelID:  testChannel,
		TitleLimit: 90,
		TempDir:    f.tempDir,
		Events:     f.events,
	})
	return f
}

func (f *fixture) entry(t *testing.T, storyID string) *models.LedgerEntry {
	t.Helper()
	e, err := f.ledger.Get(context.Background(), storyID)
	if err != nil {
		t.Fatalf("ledger.Get(%s) error = %v", storyID, err)
	}
	return e
}

type published struct {
	topic   string
	payload any
}

// recordingPublisher captures events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic: topic, payload: payload})
	return r.err
}

func (r *recordingPublisher) rotations() []models.RotationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RotationEvent
	for _, e := range r.events {
		if ev, ok := e.payload.(models.RotationEvent); ok && e.topic == models.TopicStoryRotated {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingPublisher) syncs() []*models.SyncReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SyncReport
	for _, e := range r.events {
		if rep, ok := e.payload.(*models.SyncReport); ok && e.topic == models.TopicFleetSynced {
			out = append(out, rep)
		}
	}
	return out
}

// failingSetLedger accepts reads but rejects writes.
type failingSetLedger struct {
	*ledger.MemoryLedger
}

var errDiskFull = errors.New("disk full")

func (l failingSetLedger) Set(context.Context, string, models.LedgerEntry) error {
	return errDiskFull
}

// hangingPoster blocks FetchChannel until the caller's context ends.
type hangingPoster struct {
	*platform.MockPoster
}

func (p hangingPoster) FetchChannel(ctx context.Context, _ string) (*platform.Channel, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ctxLedger fails writes once the caller's context has ended, as the SQL
// backend does.
type ctxLedger struct {
	*ledger.MemoryLedger
}

func (l ctxLedger) Set(ctx context.Context, storyID string, entry models.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.MemoryLedger.Set(ctx, storyID, entry)
}

// lateAckPoster publishes threads but only acknowledges them once the
// caller's deadline has passed. Deletes honour the context.
type lateAckPoster struct {
	*platform.MockPoster
}

func (p lateAckPoster) CreateThread(ctx context.Context, ch *platform.Channel, title string, msg platform.Message) (string, error) {
	id, err := p.MockPoster.CreateThread(context.WithoutCancel(ctx), ch, title, msg)
	<-ctx.Done()
	return id, err
}

func (p lateAckPoster) DeleteThread(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.MockPoster.DeleteThread(ctx, threadID)
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
