// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package platform

import (
	"context"
	"errors"

	"github.com/tomtom215/soapbox/internal/resilience"
)

// CircuitBreakerPoster wraps a Poster with a circuit breaker. Deleting a post
// that is already gone is an expected answer and does not count as a failure.
type CircuitBreakerPoster struct {
	poster Poster
	cb     *resilience.Breaker
}

// NewCircuitBreakerPoster wraps poster with a breaker named "discord".
func NewCircuitBreakerPoster(poster Poster) *CircuitBreakerPoster {
	return &CircuitBreakerPoster{
		poster: poster,
		cb: resilience.New("discord", resilience.Settings{
			IsExpected: func(err error) bool { return errors.Is(err, ErrNotFound) },
		}),
	}
}

// State returns the breaker state for health reporting.
func (p *CircuitBreakerPoster) State() string {
	return p.cb.State()
}

func (p *CircuitBreakerPoster) FetchChannel(ctx context.Context, channelID string) (*Channel, error) {
	return resilience.Execute(p.cb, func() (*Channel, error) {
		return p.poster.FetchChannel(ctx, channelID)
	})
}

func (p *CircuitBreakerPoster) CreateThread(ctx context.Context, ch *Channel, title string, msg Message) (string, error) {
	return resilience.Execute(p.cb, func() (string, error) {
		return p.poster.CreateThread(ctx, ch, title, msg)
	})
}

func (p *CircuitBreakerPoster) SendMessage(ctx context.Context, ch *Channel, msg Message) (string, error) {
	return resilience.Execute(p.cb, func() (string, error) {
		return p.poster.SendMessage(ctx, ch, msg)
	})
}

func (p *CircuitBreakerPoster) DeleteThread(ctx context.Context, threadID string) error {
	return p.cb.Do(func() error {
		return p.poster.DeleteThread(ctx, threadID)
	})
}

func (p *CircuitBreakerPoster) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.cb.Do(func() error {
		return p.poster.DeleteMessage(ctx, channelID, messageID)
	})
}

func (p *CircuitBreakerPoster) FindThread(ctx context.Context, ch *Channel, name string) (string, error) {
	return resilience.Execute(p.cb, func() (string, error) {
		return p.poster.FindThread(ctx, ch, name)
	})
}
