// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/soapbox/internal/api"
	"github.com/tomtom215/soapbox/internal/config"
	"github.com/tomtom215/soapbox/internal/events"
	"github.com/tomtom215/soapbox/internal/feeds"
	"github.com/tomtom215/soapbox/internal/ledger"
	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/objectstore"
	"github.com/tomtom215/soapbox/internal/platform"
	"github.com/tomtom215/soapbox/internal/stories"
	"github.com/tomtom215/soapbox/internal/witness"
	ws "github.com/tomtom215/soapbox/internal/websocket"
)

// app holds the wired components handed to the supervisor tree.
type app struct {
	ledger  ledger.Ledger
	bus     *events.Bus
	router  *events.Router
	hub     *ws.Hub
	manager *stories.Manager
	server  *http.Server
}

// buildApp wires every component from cfg. External services are only
// probed, never required: a failed S3 or Discord check is logged and the
// rotation loop retries on its own schedule.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	s3, err := objectstore.NewS3Store(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := s3.Ping(probeCtx); err != nil {
		logging.Warn().Err(err).Str("bucket", cfg.Storage.Bucket).Msg("Object store check failed (will retry)")
	}
	cancel()
	store := objectstore.NewCircuitBreakerStore(s3)

	discord, err := platform.NewDiscordPoster(cfg.Discord.Token)
	if err != nil {
		return nil, err
	}
	probeCtx, cancel = context.WithTimeout(ctx, 10*time.Second)
	if name, err := discord.Ping(probeCtx); err != nil {
		logging.Warn().Err(err).Msg("Discord token check failed (will retry)")
	} else {
		logging.Info().Str("bot", name).Msg("Connected to Discord")
	}
	cancel()
	poster := platform.NewCircuitBreakerPoster(discord)

	l, err := ledger.Open(ctx, &cfg.Ledger)
	if err != nil {
		return nil, err
	}
	bus := events.NewBus(events.DefaultBusConfig())
	router, err := events.NewRouter(events.DefaultRouterConfig(), bus)
	if err != nil {
		_ = l.Close()
		_ = bus.Close()
		return nil, err
	}
	hub := ws.NewHub()
	events.RegisterWebSocketForwarder(router, hub)

	engine := stories.NewEngine(store, poster, l, stories.EngineConfig{
		ChannelID:  cfg.Discord.BreakingChannelID,
		TitleLimit: cfg.Discord.ThreadTitleLimit,
		TempDir:    cfg.Ledger.TempDir(),
		Events:     bus,
	})
	fleet := stories.NewFleet(store, engine, stories.FleetConfig{
		DefaultStories: cfg.Rotation.DefaultStories,
		StoryTimeout:   cfg.Rotation.StoryTimeout,
		Events:         bus,
	})
	manager := stories.NewManager(fleet, stories.ManagerConfig{
		Interval:     cfg.Rotation.Interval,
		InitialDelay: cfg.Rotation.InitialDelay,
	})

	deps := api.HandlerDeps{
		Manager:       manager,
		Events:        ws.Handler(hub, cfg.Server.CORSOrigins),
		LedgerBackend: l.Backend(),
	}
	if cfg.Witness.Enabled {
		deps.Witness = witness.NewService(store, poster, witness.Config{
			Bucket:        s3.Bucket(),
			ChannelID:     cfg.Discord.BreakingChannelID,
			MaxBytes:      cfg.Witness.MaxBytes,
			PostToDiscord: cfg.Witness.PostToDiscord,
		})
		logging.Info().Int64("max_bytes", cfg.Witness.MaxBytes).Msg("Witness ingestion enabled")
	}
	if cfg.Feeds.Enabled {
		deps.Feeds = feeds.NewService(store, feeds.Config{
			SpotlightsPrefix:  cfg.Feeds.SpotlightsPrefix,
			ConfessionsPrefix: cfg.Feeds.ConfessionsPrefix,
			QueuePrefix:       cfg.Feeds.QueuePrefix,
			VoicemailsPrefix:  cfg.Feeds.VoicemailsPrefix,
			TempDir:           cfg.Ledger.TempDir(),
		})
	}

	mwCfg := api.DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwCfg.RateLimitRequests = cfg.Security.RateLimitRequests
	mwCfg.RateLimitWindow = cfg.Security.RateLimitWindow
	mwCfg.RateLimitDisabled = cfg.Security.RateLimitDisabled
	mwCfg.LongRequestTimeout = cfg.Server.LongRequestTimeout

	apiRouter := api.NewRouter(api.NewHandler(deps), api.NewChiMiddleware(mwCfg), cfg.Security.APIKey)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           apiRouter.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	return &app{
		ledger:  l,
		bus:     bus,
		router:  router,
		hub:     hub,
		manager: manager,
		server:  server,
	}, nil
}

// Close releases the event bus and the ledger. Call it after the tree has
// stopped so no rotation is mid-write.
func (a *app) Close() {
	if err := a.router.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event router")
	}
	if err := a.bus.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event bus")
	}
	if err := a.ledger.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing ledger")
	}
}
