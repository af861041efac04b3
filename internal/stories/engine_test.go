// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/soapbox/internal/ledger"
	"github.com/tomtom215/soapbox/internal/metrics"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/platform"
)

func mustRotate(t *testing.T, e *Engine, storyID string, want Outcome) Result {
	t.Helper()
	res, err := e.Rotate(context.Background(), storyID)
	if want == OutcomeRotated || want == OutcomeUnchanged {
		if err != nil {
			t.Fatalf("Rotate(%s) error = %v", storyID, err)
		}
	}
	if res.Outcome != want {
		t.Fatalf("Rotate(%s) outcome = %s (err %v), want %s", storyID, res.Outcome, err, want)
	}
	return res
}

// Walks the first-publish, metadata change, no-op and voicemail scenarios in order.
func TestEngine_RotationLifecycle(t *testing.T) {
	f := newFixture(t, true)
	rotatedBefore := testutil.ToFloat64(metrics.RotationsTotal.WithLabelValues("rotated"))

	// 1. One image, no metadata, no ledger entry.
	f.store.PutAt("stories/Story1/cover.jpg", []byte("jpeg-bytes"), t1)
	first := mustRotate(t, f.engine, "Story1", OutcomeRotated)

	if first.CycleKey != "Story1:"+millis(t1) {
		t.Errorf("cycle key = %s", first.CycleKey)
	}
	created := f.poster.Created()
	if len(created) != 1 {
		t.Fatalf("created %d posts, want 1", len(created))
	}
	if !created[0].Thread || created[0].Title != "Story1" || created[0].Content != "**Story1**" {
		t.Errorf("first post = %+v", created[0])
	}
	if created[0].AttachmentName != "cover.jpg" || string(created[0].AttachmentData) != "jpeg-bytes" {
		t.Errorf("attachment = %s %q", created[0].AttachmentName, created[0].AttachmentData)
	}
	e := f.entry(t, "Story1")
	if e == nil || e.CycleKey != first.CycleKey || e.Ref.Type != models.RefThread || e.Ref.ID != first.Ref.ID {
		t.Fatalf("ledger = %+v", e)
	}

	// 2. Metadata added later: old thread retired, new one titled from metadata.
	f.store.PutAt("stories/Story1/metadata.json", []byte(`{"title":"Layoffs at Plant 4"}`), t2)
	second := mustRotate(t, f.engine, "Story1", OutcomeRotated)

	if second.CycleKey != "Story1:"+millis(t2) {
		t.Errorf("cycle key = %s", second.CycleKey)
	}
	if deleted := f.poster.Deleted(); len(deleted) != 1 || deleted[0] != first.Ref.ID {
		t.Errorf("deleted = %v, want [%s]", deleted, first.Ref.ID)
	}
	if last := f.poster.Created()[1]; last.Title != "Layoffs at Plant 4" {
		t.Errorf("second post title = %q", last.Title)
	}
	if e := f.entry(t, "Story1"); e.CycleKey != second.CycleKey || e.Ref.ID != second.Ref.ID {
		t.Errorf("ledger = %+v", e)
	}

	// 3. Nothing changed: no platform calls at all.
	creates, deletes, fetches := f.poster.CreateCount(), f.poster.DeleteCount(), f.poster.FetchCount()
	mustRotate(t, f.engine, "Story1", OutcomeUnchanged)
	if f.poster.CreateCount() != creates || f.poster.DeleteCount() != deletes || f.poster.FetchCount() != fetches {
		t.Error("unchanged rotation touched the platform")
	}

	// 4. New voicemail rotates even though title and thumbnail are the same.
	f.store.PutAt("stories/Story1/voicemail/call.mp3", []byte("audio"), t3)
	third := mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if third.CycleKey != "Story1:"+millis(t3) {
		t.Errorf("cycle key = %s", third.CycleKey)
	}

	// At most one live post for the story.
	if live := f.poster.Live(); len(live) != 1 || !f.poster.IsLive(third.Ref.ID) {
		t.Errorf("live posts = %v, want only %s", live, third.Ref.ID)
	}

	if got := testutil.ToFloat64(metrics.RotationsTotal.WithLabelValues("rotated")) - rotatedBefore; got < 3 {
		t.Errorf("rotated counter grew by %v, want at least 3", got)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story2/a.png", []byte("png"), t1)

	mustRotate(t, f.engine, "Story2", OutcomeRotated)
	mustRotate(t, f.engine, "Story2", OutcomeUnchanged)

	if f.poster.CreateCount() != 1 {
		t.Errorf("CreateCount = %d, want 1", f.poster.CreateCount())
	}
}

func TestEngine_EmptyStoryStillPublishes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	res := mustRotate(t, f.engine, "Story5", OutcomeRotated)
	if res.CycleKey != "Story5:0" {
		t.Errorf("cycle key = %s, want Story5:0", res.CycleKey)
	}
	post := f.poster.Created()[0]
	if post.Title != "Story5" || post.Content != "**Story5**" || post.AttachmentName != "" {
		t.Errorf("post = %+v", post)
	}
}

func TestEngine_DeleteFailureStillPublishes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)
	mustRotate(t, f.engine, "Story1", OutcomeRotated)

	f.poster.SetDeleteError(&platform.Error{Op: "delete_thread", Code: platform.ErrorCodeServerError, Status: 500, Err: errors.New("boom")})
	f.store.Touch("stories/Story1/cover.jpg", t2)

	res := mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if f.poster.CreateCount() != 2 {
		t.Errorf("CreateCount = %d, want 2", f.poster.CreateCount())
	}
	if e := f.entry(t, "Story1"); e.Ref.ID != res.Ref.ID {
		t.Errorf("ledger ref = %s, want %s", e.Ref.ID, res.Ref.ID)
	}
}

func TestEngine_PublishFailureLeavesLedgerAndSelfHeals(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)
	first := mustRotate(t, f.engine, "Story1", OutcomeRotated)

	f.store.Touch("stories/Story1/cover.jpg", t2)
	f.poster.SetCreateError(&platform.Error{Op: "create_thread", Code: platform.ErrorCodeRateLimited, Err: errors.New("slow down")})

	res, err := f.engine.Rotate(context.Background(), "Story1")
	if err == nil || res.Outcome != OutcomeFailed {
		t.Fatalf("Rotate() = %s, %v, want failed", res.Outcome, err)
	}
	e := f.entry(t, "Story1")
	if e.CycleKey != first.CycleKey || e.Ref.ID != first.Ref.ID {
		t.Errorf("ledger changed after failed publish: %+v", e)
	}
	if entries, _ := os.ReadDir(f.tempDir); len(entries) != 0 {
		t.Errorf("temp dir not cleaned after failure: %d entries", len(entries))
	}

	// Next pass: old ref is already gone (delete swallowed), publish succeeds.
	f.poster.SetCreateError(nil)
	healed := mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if e := f.entry(t, "Story1"); e.CycleKey != "Story1:"+millis(t2) || e.Ref.ID != healed.Ref.ID {
		t.Errorf("ledger after self-heal = %+v", e)
	}
	if live := f.poster.Live(); len(live) != 1 {
		t.Errorf("live posts = %d, want 1", len(live))
	}
}

func TestEngine_FetchChannelFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.poster.SetFetchError(errors.New("gateway down"))

	res, err := f.engine.Rotate(context.Background(), "Story1")
	if err == nil || res.Outcome != OutcomeFailed {
		t.Fatalf("Rotate() = %s, %v", res.Outcome, err)
	}
	if f.entry(t, "Story1") != nil {
		t.Error("ledger written despite failure")
	}
}

func TestEngine_CycleKeyFailureSkips(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.FailList("stories/Story1/", errors.New("AccessDenied"))

	res, err := f.engine.Rotate(context.Background(), "Story1")
	if err == nil || res.Outcome != OutcomeSkipped {
		t.Fatalf("Rotate() = %s, %v, want skipped", res.Outcome, err)
	}
	if f.poster.FetchCount() != 0 || f.poster.CreateCount() != 0 {
		t.Error("skipped rotation reached the platform")
	}
}

func TestEngine_MissingThumbnailPostsWithoutAttachment(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/metadata.json", []byte(`{"title":"T","thumbnail":"gone.png"}`), t1)

	mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if post := f.poster.Created()[0]; post.AttachmentName != "" {
		t.Errorf("attachment = %s, want none", post.AttachmentName)
	}
}

func TestEngine_TempFilesReleased(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.png", []byte("png"), t1)

	mustRotate(t, f.engine, "Story1", OutcomeRotated)
	entries, err := os.ReadDir(f.tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d entries after rotation", len(entries))
	}
}

func TestEngine_MessageChannel(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)

	first := mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if first.Ref.Type != models.RefMessage {
		t.Fatalf("ref type = %s, want message", first.Ref.Type)
	}

	f.store.Touch("stories/Story1/cover.jpg", t2)
	mustRotate(t, f.engine, "Story1", OutcomeRotated)
	if deleted := f.poster.Deleted(); len(deleted) != 1 || deleted[0] != first.Ref.ID {
		t.Errorf("deleted = %v", deleted)
	}
}

func TestEngine_TitleTruncated(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	long := strings.Repeat("ü", 120)
	f.store.PutAt("stories/Story1/metadata.json", []byte(`{"title":"`+long+`"}`), t1)

	mustRotate(t, f.engine, "Story1", OutcomeRotated)
	post := f.poster.Created()[0]
	if n := len([]rune(post.Title)); n != 90 {
		t.Errorf("thread title = %d runes, want 90", n)
	}
	if !strings.Contains(post.Content, long) {
		t.Error("content should carry the full title")
	}
}

func TestEngine_LedgerWriteFailureWithdrawsPost(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.engine = NewEngine(f.store, f.poster, failingSetLedger{ledger.NewMemoryLedger()}, EngineConfig{
		ChannelID: testChannel,
		TempDir:   f.tempDir,
	})

	res, err := f.engine.Rotate(context.Background(), "Story1")
	if !errors.Is(err, errDiskFull) || res.Outcome != OutcomeFailed {
		t.Fatalf("Rotate() = %s, %v", res.Outcome, err)
	}
	if live := f.poster.Live(); len(live) != 0 {
		t.Errorf("unrecorded post left live: %v", live)
	}
}

func TestEngine_WithdrawFailureLeavesPostLive(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.poster.SetDeleteError(errors.New("discord 500"))
	engine := NewEngine(f.store, f.poster, failingSetLedger{ledger.NewMemoryLedger()}, EngineConfig{
		ChannelID: testChannel,
		TempDir:   f.tempDir,
	})

	res, err := engine.Rotate(context.Background(), "Story1")
	if !errors.Is(err, errDiskFull) || res.Outcome != OutcomeFailed {
		t.Fatalf("Rotate() = %s, %v", res.Outcome, err)
	}
	if f.poster.DeleteCount() != 1 {
		t.Errorf("DeleteCount = %d, want one withdrawal attempt", f.poster.DeleteCount())
	}
	if len(f.poster.Live()) != 1 {
		t.Errorf("live posts = %d, want the orphan still live", len(f.poster.Live()))
	}
}

func TestEngine_ConcurrentRotatePublishesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Rotate(context.Background(), "Story1")
		}()
	}
	wg.Wait()

	if f.poster.CreateCount() != 1 {
		t.Errorf("CreateCount = %d, want 1", f.poster.CreateCount())
	}
	if f.engine.locks.size() != 0 {
		t.Errorf("lock table not drained: %d", f.engine.locks.size())
	}
}

func TestEngine_ResetStory(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)
	first := mustRotate(t, f.engine, "Story1", OutcomeRotated)

	res, err := f.engine.ResetStory(context.Background(), "Story1")
	if err != nil || res.Outcome != OutcomeRotated {
		t.Fatalf("ResetStory() = %s, %v", res.Outcome, err)
	}
	if res.CycleKey != first.CycleKey {
		t.Errorf("cycle key = %s, want unchanged %s", res.CycleKey, first.CycleKey)
	}
	if res.Ref.ID == first.Ref.ID || f.poster.IsLive(first.Ref.ID) {
		t.Error("reset should replace the post")
	}
}

func TestEngine_Events(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)
	first := mustRotate(t, f.engine, "Story1", OutcomeRotated)
	mustRotate(t, f.engine, "Story1", OutcomeUnchanged)
	f.store.Touch("stories/Story1/cover.jpg", t2)
	mustRotate(t, f.engine, "Story1", OutcomeRotated)

	evs := f.events.rotations()
	if len(evs) != 2 {
		t.Fatalf("events = %d, want 2 (unchanged is silent)", len(evs))
	}
	if evs[1].PreviousRef == nil || evs[1].PreviousRef.ID != first.Ref.ID {
		t.Errorf("second event previous ref = %+v", evs[1].PreviousRef)
	}
}

func TestEngine_EventPublishErrorIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.events.err = errors.New("bus closed")
	mustRotate(t, f.engine, "Story1", OutcomeRotated)
}

func TestEngine_Inspect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	f.store.PutAt("stories/Story1/cover.jpg", []byte("x"), t1)

	got, err := f.engine.Inspect(context.Background(), "Story1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Stale || got.Ledger != nil || got.Presentation.ThumbnailKey != "stories/Story1/cover.jpg" {
		t.Errorf("inspection before rotate = %+v", got)
	}

	mustRotate(t, f.engine, "Story1", OutcomeRotated)
	got, _ = f.engine.Inspect(context.Background(), "Story1")
	if got.Stale || got.Ledger == nil {
		t.Errorf("inspection after rotate = %+v", got)
	}
	if f.poster.FetchCount() != 1 {
		t.Error("Inspect must not call the platform")
	}
}
