// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package events carries rotation activity through an in-process Watermill
bus.

The rotation engine publishes a story.rotated message for every story whose
post changed and the fleet publishes fleet.synced after each pass. A
Watermill router consumes both topics and forwards them to the websocket
hub, so dashboards see rotations as they happen.

The bus is a gochannel pub/sub: delivery is at-most-once and nothing is
persisted. Losing an event never affects the ledger.

Components:

  - Bus: Publish(ctx, topic, payload) marshals payload as JSON
  - Router: Watermill router with panic recovery and retry middleware
  - RegisterWebSocketForwarder: topic to websocket message bridge
*/
package events
