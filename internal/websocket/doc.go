// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package websocket pushes rotation activity to connected dashboard clients.

The package uses gorilla/websocket with a hub-client architecture. The hub
owns the client set; each client runs a read pump (pings, close detection)
and a write pump (queued messages, keepalive pings).

	┌──────────┐
	│   Hub    │ ← BroadcastJSON from the event forwarder
	└────┬─────┘
	     │
	┌────┴─────┬─────────┐
	│ Client1  │ Client2 │ ...
	└──────────┴─────────┘

Message Types:

  - story_rotated: a story was republished, retired or failed to publish
  - fleet_synced: a sync pass finished, with per-outcome counts
  - ping / pong: client keepalive

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)
	r.Get("/ws", websocket.Handler(hub, []string{"https://dash.example"}))

Slow clients whose send buffer fills are dropped rather than blocking the
broadcast loop.
*/
package websocket
