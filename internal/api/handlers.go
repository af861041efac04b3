// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/feeds"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/stories"
	"github.com/tomtom215/soapbox/internal/witness"
)

// RotationManager is the slice of *stories.Manager the handlers use.
type RotationManager interface {
	TriggerSync(ctx context.Context) (*models.SyncReport, error)
	ResetAll(ctx context.Context) (*models.SyncReport, error)
	ResetStory(ctx context.Context, storyID string) (stories.Result, error)
	Inspect(ctx context.Context, storyID string) (*models.StoryInspection, error)
	Ledger(ctx context.Context) (map[string]models.LedgerEntry, error)
	LastSync() time.Time
}

// WitnessUploader is the slice of *witness.Service the handlers use.
type WitnessUploader interface {
	Upload(ctx context.Context, u witness.Upload) (*models.WitnessUploadResult, error)
	MaxBytes() int64
}

// FeedService is the slice of *feeds.Service the public feed handlers use.
type FeedService interface {
	Feed(ctx context.Context, feed feeds.Feed) (json.RawMessage, error)
	SubmitConfession(ctx context.Context, text, ip string) (*models.ConfessionReceipt, error)
	Voicemails(ctx context.Context) ([]models.Voicemail, error)
	OpenVoicemail(ctx context.Context, id string) (*feeds.Stream, error)
}

// Handler holds the dependencies of every endpoint.
//
// Handler methods are split across files:
//   - handlers_health.go: /health
//   - handlers_admin.go: /admin/* rotation and ledger endpoints
//   - handlers_witness.go: /api/witness
//   - handlers_feeds.go: public stories, spotlights, confessions and voicemails
type Handler struct {
	manager       RotationManager
	witness       WitnessUploader
	feeds         FeedService
	events        http.Handler
	ledgerBackend string
	startTime     time.Time
}

// HandlerDeps are the inputs to NewHandler. Witness, Feeds and Events may
// be nil, which disables the corresponding endpoints.
type HandlerDeps struct {
	Manager       RotationManager
	Witness       WitnessUploader
	Feeds         FeedService
	Events        http.Handler
	LedgerBackend string
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		manager:       deps.Manager,
		witness:       deps.Witness,
		feeds:         deps.Feeds,
		events:        deps.Events,
		ledgerBackend: deps.LedgerBackend,
		startTime:     time.Now(),
	}
}
