// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package services

import (
	"context"
	"fmt"
)

// EventRouter matches *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventRouterService runs the watermill router that relays bus events to
// the websocket hub.
//
// All consumers must be registered before the tree starts. A watermill
// router cannot be run twice, so a restart after a crash fails fast and
// suture keeps the rest of the messaging layer up.
type EventRouterService struct {
	router EventRouter
	name   string
}

// NewEventRouterService creates a new event router service wrapper.
func NewEventRouterService(router EventRouter) *EventRouterService {
	return &EventRouterService{
		router: router,
		name:   "event-router",
	}
}

// Serve implements suture.Service.
func (e *EventRouterService) Serve(ctx context.Context) error {
	if err := e.router.Run(ctx); err != nil {
		return fmt.Errorf("event router failed: %w", err)
	}
	// Run returns nil once the router closes on cancellation.
	return ctx.Err()
}

// String implements fmt.Stringer.
func (e *EventRouterService) String() string {
	return e.name
}
