// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/soapbox/internal/ledger"
	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/metrics"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
	"github.com/tomtom215/soapbox/internal/platform"
)

// Outcome is the result class of one rotation.
type Outcome string

const (
	// OutcomeUnchanged means the ledger already held the current cycle key.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRotated means a new post was published and recorded.
	OutcomeRotated Outcome = "rotated"
	// OutcomeSkipped means the cycle key or ledger could not be read.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means publishing (or recording) the new post failed.
	OutcomeFailed Outcome = "failed"
)

// Result describes a finished rotation.
type Result struct {
	StoryID  string
	Outcome  Outcome
	CycleKey string
	Ref      *models.PlatformRef
}

// EventPublisher receives rotation and sync notifications. Publish failures
// are logged by the caller and never affect a rotation.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// DefaultTitleLimit is the thread-name length used when none is configured.
const DefaultTitleLimit = 90

// persistTimeout bounds the ledger write (and any withdrawal) that follows
// a successful post.
const persistTimeout = 10 * time.Second

// EngineConfig holds the engine's settings.
type EngineConfig struct {
	// ChannelID is the channel stories are posted to.
	ChannelID string

	// TitleLimit bounds thread names, in characters.
	TitleLimit int

	// TempDir receives staged thumbnails.
	TempDir string

	// Events is optional.
	Events EventPublisher
}

// Engine is the Rotation Engine.
type Engine struct {
	store  objectstore.Store
	poster platform.Poster
	ledger ledger.Ledger
	cfg    EngineConfig
	locks  *keyLock
	now    func() time.Time
}

// NewEngine wires the engine to its three ports.
func NewEngine(store objectstore.Store, poster platform.Poster, l ledger.Ledger, cfg EngineConfig) *Engine {
	if cfg.TitleLimit <= 0 || cfg.TitleLimit > platform.MaxThreadTitle {
		cfg.TitleLimit = DefaultTitleLimit
	}
	return &Engine{
		store:  store,
		poster: poster,
		ledger: l,
		cfg:    cfg,
		locks:  newKeyLock(),
		now:    time.Now,
	}
}

// Ledger exposes the ledger for read-only admin views.
func (e *Engine) Ledger() ledger.Ledger {
	return e.ledger
}

// Rotate brings one story's post up to date with its content.
//
// Steps: fingerprint, compare with the ledger, retire the previous post
// (best effort), read the presentation, stage the thumbnail, publish, and
// only then record the new cycle. A publish failure leaves the ledger as it
// was, so the next pass retries.
func (e *Engine) Rotate(ctx context.Context, storyID string) (Result, error) {
	unlock := e.locks.Lock(storyID)
	defer unlock()
	return e.rotateLocked(ctx, storyID)
}

func (e *Engine) rotateLocked(ctx context.Context, storyID string) (Result, error) {
	start := time.Now()
	res := Result{StoryID: storyID}
	log := logging.Ctx(ctx).With().Str("story_id", storyID).Logger()

	defer func() {
		metrics.RecordRotation(string(res.Outcome), time.Since(start))
	}()

	cycleKey, err := ComputeCycleKey(ctx, e.store, storyID)
	if err != nil {
		res.Outcome = OutcomeSkipped
		log.Warn().Err(err).Msg("Cycle key unavailable, skipping story")
		e.publish(ctx, res, "", nil, err)
		return res, fmt.Errorf("cycle key %s: %w", storyID, err)
	}
	res.CycleKey = cycleKey
	log = log.With().Str("cycle_key", cycleKey).Logger()

	existing, err := e.ledger.Get(ctx, storyID)
	if err != nil {
		res.Outcome = OutcomeSkipped
		log.Error().Err(err).Msg("Ledger read failed, skipping story")
		e.publish(ctx, res, "", nil, err)
		return res, fmt.Errorf("ledger get %s: %w", storyID, err)
	}
	if existing != nil && existing.CycleKey == cycleKey {
		res.Outcome = OutcomeUnchanged
		res.Ref = existing.Ref
		log.Debug().Msg("Story unchanged")
		return res, nil
	}

	var previous *models.PlatformRef
	if existing != nil && !existing.Ref.IsZero() {
		previous = existing.Ref
		e.retire(ctx, &log, previous)
	}

	pres, err := ReadPresentation(ctx, e.store, storyID)
	if err != nil {
		log.Warn().Err(err).Msg("Presentation incomplete, publishing with what was read")
	}

	msg := platform.Message{Content: pres.Content()}
	if pres.ThumbnailKey != "" {
		staged, err := stageObject(ctx, e.store, e.cfg.TempDir, pres.ThumbnailKey)
		if err != nil {
			log.Warn().Err(err).Str("thumbnail", pres.ThumbnailKey).Msg("Thumbnail unavailable, posting without it")
		} else {
			defer staged.Release()
			if r, err := staged.Open(); err != nil {
				log.Warn().Err(err).Msg("Staged thumbnail unreadable, posting without it")
			} else {
				msg.Attachment = &platform.Attachment{Name: staged.name, ContentType: staged.contentType, Reader: r}
			}
		}
	}

	ref, err := e.post(ctx, pres.Title, msg)
	if err != nil {
		res.Outcome = OutcomeFailed
		log.Error().Err(err).Msg("Publishing story failed, ledger left unchanged")
		e.publish(ctx, res, pres.Title, previous, err)
		return res, fmt.Errorf("publish %s: %w", storyID, err)
	}

	// The post is live. Recording it must not share the rotation deadline,
	// or a pass that times out here republishes the story on every retry.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	entry := models.LedgerEntry{CycleKey: cycleKey, Ref: ref, UpdatedAt: e.now().UTC()}
	if err := e.ledger.Set(persistCtx, storyID, entry); err != nil {
		// An unrecorded post would be published again next pass; take it down.
		res.Outcome = OutcomeFailed
		if werr := e.retire(persistCtx, &log, ref); werr != nil && !errors.Is(werr, platform.ErrNotFound) {
			log.Error().Err(err).AnErr("withdraw_error", werr).
				Str("ref_type", string(ref.Type)).Str("ref_id", ref.ID).
				Msg("Ledger write failed and new post could not be withdrawn, post orphaned")
		} else {
			log.Error().Err(err).Msg("Ledger write failed, new post withdrawn")
		}
		e.publish(ctx, res, pres.Title, previous, err)
		return res, fmt.Errorf("ledger set %s: %w", storyID, err)
	}

	res.Outcome = OutcomeRotated
	res.Ref = ref
	log.Info().Str("ref_type", string(ref.Type)).Str("ref_id", ref.ID).Str("title", pres.Title).
		Bool("thumbnail", msg.Attachment != nil).Msg("Story rotated")
	e.publish(ctx, res, pres.Title, previous, nil)
	return res, nil
}

// post creates a thread in forum channels and a plain message elsewhere.
func (e *Engine) post(ctx context.Context, title string, msg platform.Message) (*models.PlatformRef, error) {
	ch, err := e.poster.FetchChannel(ctx, e.cfg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("fetch channel: %w", err)
	}
	if ch.Forum {
		id, err := e.poster.CreateThread(ctx, ch, platform.TruncateTitle(title, e.cfg.TitleLimit), msg)
		if err != nil {
			return nil, err
		}
		return &models.PlatformRef{Type: models.RefThread, ID: id}, nil
	}
	id, err := e.poster.SendMessage(ctx, ch, msg)
	if err != nil {
		return nil, err
	}
	return &models.PlatformRef{Type: models.RefMessage, ID: id}, nil
}

// retire deletes a post. Failures are logged and returned; callers
// retiring a previous post carry on regardless.
func (e *Engine) retire(ctx context.Context, log *zerolog.Logger, ref *models.PlatformRef) error {
	if ref.IsZero() {
		return nil
	}
	var err error
	switch ref.Type {
	case models.RefThread:
		err = e.poster.DeleteThread(ctx, ref.ID)
	case models.RefMessage:
		err = e.poster.DeleteMessage(ctx, e.cfg.ChannelID, ref.ID)
	default:
		err = fmt.Errorf("unknown ref type %q", ref.Type)
	}

	l := log.With().Str("ref_type", string(ref.Type)).Str("ref_id", ref.ID).Logger()
	switch {
	case err == nil:
		l.Info().Msg("Deleted previous post")
	case errors.Is(err, platform.ErrNotFound):
		l.Debug().Msg("Previous post already gone")
	default:
		l.Warn().Err(err).Msg("Deleting previous post failed, continuing")
	}
	return err
}

// ResetStory forgets a story's ledger entry after retiring its post, then
// rotates it from scratch.
func (e *Engine) ResetStory(ctx context.Context, storyID string) (Result, error) {
	unlock := e.locks.Lock(storyID)
	defer unlock()

	log := logging.Ctx(ctx).With().Str("story_id", storyID).Logger()
	existing, err := e.ledger.Get(ctx, storyID)
	if err != nil {
		return Result{StoryID: storyID, Outcome: OutcomeSkipped}, fmt.Errorf("ledger get %s: %w", storyID, err)
	}
	if existing != nil {
		e.retire(ctx, &log, existing.Ref)
	}
	if err := e.ledger.Delete(ctx, storyID); err != nil {
		return Result{StoryID: storyID, Outcome: OutcomeSkipped}, fmt.Errorf("ledger delete %s: %w", storyID, err)
	}
	log.Info().Msg("Story reset")
	return e.rotateLocked(ctx, storyID)
}

// RetireAll deletes every recorded post and clears the ledger. It returns
// the number of entries removed.
func (e *Engine) RetireAll(ctx context.Context) (int, error) {
	entries, err := e.ledger.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger all: %w", err)
	}
	for storyID, entry := range entries {
		unlock := e.locks.Lock(storyID)
		log := logging.Ctx(ctx).With().Str("story_id", storyID).Logger()
		e.retire(ctx, &log, entry.Ref)
		unlock()
	}
	if err := e.ledger.Clear(ctx); err != nil {
		return 0, fmt.Errorf("ledger clear: %w", err)
	}
	metrics.SetLedgerEntries(0)
	logging.Ctx(ctx).Info().Int("entries", len(entries)).Msg("Ledger cleared")
	return len(entries), nil
}

// Inspect reports a story's current fingerprint, presentation and ledger
// entry without touching the platform.
func (e *Engine) Inspect(ctx context.Context, storyID string) (*models.StoryInspection, error) {
	cycleKey, err := ComputeCycleKey(ctx, e.store, storyID)
	if err != nil {
		return nil, err
	}
	pres, err := ReadPresentation(ctx, e.store, storyID)
	if err != nil {
		return nil, err
	}
	entry, err := e.ledger.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return &models.StoryInspection{
		StoryID:      storyID,
		CycleKey:     cycleKey,
		Presentation: pres,
		Ledger:       entry,
		Stale:        entry == nil || entry.CycleKey != cycleKey,
	}, nil
}

func (e *Engine) publish(ctx context.Context, res Result, title string, previous *models.PlatformRef, cause error) {
	if e.cfg.Events == nil {
		return
	}
	ev := models.RotationEvent{
		StoryID:     res.StoryID,
		Outcome:     string(res.Outcome),
		CycleKey:    res.CycleKey,
		Title:       title,
		Ref:         res.Ref,
		PreviousRef: previous,
		At:          e.now().UTC(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if err := e.cfg.Events.Publish(ctx, models.TopicStoryRotated, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("story_id", res.StoryID).Msg("Publishing rotation event failed")
	}
}
