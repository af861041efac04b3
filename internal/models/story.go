// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package models

import "time"

// RefType discriminates what a PlatformRef points at.
type RefType string

const (
	RefThread  RefType = "thread"
	RefMessage RefType = "message"
)

// Valid reports whether t is a known ref type.
func (t RefType) Valid() bool {
	return t == RefThread || t == RefMessage
}

// PlatformRef is the opaque handle of a post created for one story cycle.
type PlatformRef struct {
	Type RefType `json:"type"`
	ID   string  `json:"id"`
}

// IsZero reports whether the ref points at nothing deletable.
func (r *PlatformRef) IsZero() bool {
	return r == nil || r.ID == ""
}

// LedgerEntry is the durable record of a story's last published cycle.
// Ref always denotes a post that was successfully created.
type LedgerEntry struct {
	CycleKey  string       `json:"cycleKey"`
	Ref       *PlatformRef `json:"ref,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt,omitempty"`
}

// Presentation is the display bundle read for one story. It is recomputed on
// every rotation and never persisted.
type Presentation struct {
	StoryID        string `json:"story_id"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	ThumbnailKey   string `json:"thumbnail_key,omitempty"`
	LatestAudioKey string `json:"latest_audio_key,omitempty"`
}

// Content renders the post body: the bold title, then the subtitle on its
// own line when present.
func (p *Presentation) Content() string {
	content := "**" + p.Title + "**"
	if p.Subtitle != "" {
		content += "\n" + p.Subtitle
	}
	return content
}

// StoryMetadata is the optional stories/{id}/metadata.json document.
type StoryMetadata struct {
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	Thumbnail string `json:"thumbnail"`
}

// StoryInspection is the read-only view returned by GET /admin/stories/{id}.
type StoryInspection struct {
	StoryID      string        `json:"story_id"`
	CycleKey     string        `json:"cycle_key"`
	Presentation *Presentation `json:"presentation"`
	Ledger       *LedgerEntry  `json:"ledger,omitempty"`
	Stale        bool          `json:"stale"`
}
