// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package logging provides the process-wide zerolog logger for Soapbox.
//
// The package keeps a single global logger configured once from main and
// exposes level helpers that return *zerolog.Event:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("story_id", id).Msg("Story rotated")
//
// Context helpers propagate request and correlation IDs through
// context.Context so that a rotation triggered from an admin request can be
// traced from the HTTP access line down to the platform call:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Warn().Err(err).Msg("Thumbnail fetch failed")
//
// NewSlogLogger bridges zerolog into log/slog for libraries that only accept
// a *slog.Logger (sutureslog, watermill).
//
// Environment variables (read by internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
