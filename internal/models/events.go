// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package models

import "time"

// Event topics published on the in-process bus.
const (
	TopicStoryRotated = "story.rotated"
	TopicFleetSynced  = "fleet.synced"
)

// RotationEvent describes one rotation attempt that touched the platform or
// failed. Unchanged stories produce no event.
type RotationEvent struct {
	StoryID     string       `json:"story_id"`
	Outcome     string       `json:"outcome"`
	CycleKey    string       `json:"cycle_key,omitempty"`
	Title       string       `json:"title,omitempty"`
	Ref         *PlatformRef `json:"ref,omitempty"`
	PreviousRef *PlatformRef `json:"previous_ref,omitempty"`
	Error       string       `json:"error,omitempty"`
	At          time.Time    `json:"at"`
}

// SyncReport summarises one fleet pass.
type SyncReport struct {
	Trigger      string         `json:"trigger"`
	StartedAt    time.Time      `json:"started_at"`
	DurationMS   int64          `json:"duration_ms"`
	Stories      []string       `json:"stories"`
	FromDefaults bool           `json:"from_defaults"`
	Results      []RotateResult `json:"results"`
	Counts       map[string]int `json:"counts"`
}
