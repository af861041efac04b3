// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestPresentationContent(t *testing.T) {
	tests := []struct {
		name string
		p    Presentation
		want string
	}{
		{"title only", Presentation{Title: "Story1"}, "**Story1**"},
		{"title and subtitle", Presentation{Title: "Layoffs at Plant 4", Subtitle: "Second shift"}, "**Layoffs at Plant 4**\nSecond shift"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Content(); got != tt.want {
				t.Errorf("Content() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlatformRefIsZero(t *testing.T) {
	var nilRef *PlatformRef
	if !nilRef.IsZero() {
		t.Error("nil ref should be zero")
	}
	if !(&PlatformRef{Type: RefThread}).IsZero() {
		t.Error("ref without id should be zero")
	}
	if (&PlatformRef{Type: RefMessage, ID: "1"}).IsZero() {
		t.Error("ref with id should not be zero")
	}
}

func TestRefTypeValid(t *testing.T) {
	if !RefThread.Valid() || !RefMessage.Valid() {
		t.Error("thread and message must be valid")
	}
	if RefType("channel").Valid() {
		t.Error("channel must not be valid")
	}
}

func TestLedgerEntry_DecodesLegacyShape(t *testing.T) {
	raw := `{"cycleKey":"Story1:1700000000000","ref":{"type":"thread","id":"123"}}`
	var e LedgerEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatal(err)
	}
	if e.CycleKey != "Story1:1700000000000" || e.Ref == nil || e.Ref.Type != RefThread || e.Ref.ID != "123" {
		t.Errorf("decoded = %+v", e)
	}
}
