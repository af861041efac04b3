// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package main is the entry point for the Soapbox server.
//
// Soapbox keeps one Discord thread per story in step with the story's media
// in an S3 bucket. Every poll interval it lists stories/{id}/ and derives a
// cycle key from the newest modification time across metadata.json, the
// images directly under the prefix and the voicemail/ audio. When the key
// changes it retires the old thread and publishes a fresh one with the
// story's title, subtitle and thumbnail.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config.yaml, environment (Koanf v2)
//  2. Object store: S3 client behind a circuit breaker
//  3. Platform: Discord REST client behind a circuit breaker
//  4. Ledger: badger (default), sqlite or memory, importing stories-sync.json once
//  5. Event bus: watermill gochannel pub/sub plus a router feeding the dashboard hub
//  6. Rotation: engine, fleet driver and the scheduled manager
//  7. Witness ingestion (optional): video uploads into stories/{id}/witnesses/
//  8. Public feeds (optional): curated documents, confession queue, voicemails
//  9. HTTP server: health, metrics, admin, witness and feed endpoints (chi)
//
// Long-running parts run under a suture supervisor tree; see
// internal/supervisor for the layout.
//
// # Configuration
//
// The essentials:
//   - DISCORD_TOKEN or DISCORD_TOKEN_FILE: bot token
//   - BREAKING_CHANNEL_ID: channel receiving story threads
//   - S3_BUCKET, AWS_REGION: story bucket
//   - SOAPBOX_API_KEY: shared key for /admin (admin is closed when unset)
//   - LEDGER_BACKEND, DATA_DIR: ledger storage
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains, the
// rotation manager finishes its in-flight pass, and the ledger and event bus
// are closed after the tree stops.
//
// # Example Usage
//
//	export DISCORD_TOKEN=...
//	export S3_BUCKET=my-stories
//	export SOAPBOX_API_KEY=$(openssl rand -hex 24)
//	./soapbox
//
// Port 3030 is the default.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/soapbox/internal/config"
	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/supervisor"
	"github.com/tomtom215/soapbox/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("bucket", cfg.Storage.Bucket).
		Str("channel_id", cfg.Discord.BreakingChannelID).
		Str("ledger_backend", cfg.Ledger.Backend).
		Dur("interval", cfg.Rotation.Interval).
		Bool("admin_enabled", cfg.AdminEnabled()).
		Bool("witness_enabled", cfg.Witness.Enabled).
		Msg("Starting Soapbox with supervisor tree")

	if !cfg.AdminEnabled() {
		logging.Warn().Msg("SOAPBOX_API_KEY is not set; admin endpoints will reject every request")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer app.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	if collector, ok := app.ledger.(services.GarbageCollector); ok {
		tree.AddDataService(services.NewLedgerGCService(collector, cfg.Ledger.GCInterval))
		logging.Info().Dur("interval", cfg.Ledger.GCInterval).Msg("Ledger GC added to supervisor tree")
	}

	// Messaging layer
	tree.AddMessagingService(services.NewWebSocketHubService(app.hub))
	tree.AddMessagingService(services.NewEventRouterService(app.router))
	tree.AddMessagingService(services.NewRotationService(app.manager))
	logging.Info().Msg("WebSocket hub, event router and rotation manager added to supervisor tree")

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(app.server, 10*time.Second))
	logging.Info().Str("addr", app.server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
