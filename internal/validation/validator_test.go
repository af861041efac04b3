// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestIsStoryID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id   string
		want bool
	}{
		{"Story1", true},
		{"story_12-b", true},
		{"", false},
		{"Story 1", false},
		{"../etc", false},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		if got := IsStoryID(tt.id); got != tt.want {
			t.Errorf("IsStoryID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

type storyForm struct {
	StoryID string `validate:"required,storyid"`
	Title   string `validate:"max=10"`
	Backend string `validate:"oneof=badger sqlite memory"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     storyForm
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: storyForm{StoryID: "Story1", Title: "short", Backend: "badger"},
		},
		{
			name:      "missing story id",
			input:     storyForm{Backend: "sqlite"},
			wantErr:   true,
			wantField: "StoryID",
			wantMsg:   "StoryID is required",
		},
		{
			name:      "bad story id",
			input:     storyForm{StoryID: "a/b", Backend: "memory"},
			wantErr:   true,
			wantField: "StoryID",
			wantMsg:   "StoryID must be 1-64 characters",
		},
		{
			name:      "title too long",
			input:     storyForm{StoryID: "Story1", Title: "much too long title", Backend: "badger"},
			wantErr:   true,
			wantField: "Title",
			wantMsg:   "Title must be at most 10 characters",
		},
		{
			name:      "unknown backend",
			input:     storyForm{StoryID: "Story1", Backend: "redis"},
			wantErr:   true,
			wantField: "Backend",
			wantMsg:   "Backend must be one of: badger sqlite memory",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Fields[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", verr.Fields[0].Field, tt.wantField)
			}
			if !strings.HasPrefix(verr.Error(), tt.wantMsg) {
				t.Errorf("message = %q, want prefix %q", verr.Error(), tt.wantMsg)
			}
			apiErr := verr.ToAPIError()
			if apiErr.Code != "VALIDATION_ERROR" {
				t.Errorf("code = %s", apiErr.Code)
			}
		})
	}
}
