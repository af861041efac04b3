// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package services

import (
	"context"
	"fmt"
)

// StartStopManager matches the lifecycle of *stories.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// RotationService wraps the rotation manager as a supervised service.
//
// Serve starts the manager's poll loop, blocks until ctx is canceled and then
// stops the manager, which waits for an in-flight fleet pass to finish.
//
// Example usage:
//
//	manager := stories.NewManager(fleet, stories.ManagerConfig{Interval: cfg.Rotation.Interval})
//	tree.AddMessagingService(services.NewRotationService(manager))
type RotationService struct {
	manager StartStopManager
	name    string
}

// NewRotationService creates a new rotation service wrapper.
func NewRotationService(manager StartStopManager) *RotationService {
	return &RotationService{
		manager: manager,
		name:    "rotation-manager",
	}
}

// Serve implements suture.Service. A failed Start is returned so suture
// restarts the service with backoff.
func (s *RotationService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("rotation manager start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("rotation manager stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (s *RotationService) String() string {
	return s.name
}
