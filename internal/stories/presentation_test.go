// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/soapbox/internal/objectstore"
)

func TestReadPresentation_Defaults(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)

	p, err := ReadPresentation(context.Background(), store, "Story7")
	if err != nil {
		t.Fatalf("ReadPresentation() error = %v", err)
	}
	if p.Title != "Story7" || p.Subtitle != "" || p.ThumbnailKey != "" || p.LatestAudioKey != "" {
		t.Errorf("presentation = %+v, want defaults", p)
	}
	if p.Content() != "**Story7**" {
		t.Errorf("Content() = %q", p.Content())
	}
}

func TestReadPresentation_Metadata(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)
	store.PutAt("stories/Story1/metadata.json",
		[]byte(`{"title":"Layoffs at Plant 4","subtitle":"Day two","thumbnail":"art/hero.png"}`), t1)
	store.PutAt("stories/Story1/aaa.jpg", []byte("x"), t1)

	p, err := ReadPresentation(context.Background(), store, "Story1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Layoffs at Plant 4" || p.Subtitle != "Day two" {
		t.Errorf("title/subtitle = %q/%q", p.Title, p.Subtitle)
	}
	// Metadata wins over listed images and is not checked for existence.
	if p.ThumbnailKey != "stories/Story1/art/hero.png" {
		t.Errorf("ThumbnailKey = %s", p.ThumbnailKey)
	}
	if p.Content() != "**Layoffs at Plant 4**\nDay two" {
		t.Errorf("Content() = %q", p.Content())
	}
}

func TestReadPresentation_ThumbnailOutsideStoryIgnored(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		thumbnail string
		want      string
	}{
		{"parent traversal", "../Story2/secret.png", "stories/Story1/aaa.jpg"},
		{"nested traversal", "art/../../../private/key.png", "stories/Story1/aaa.jpg"},
		{"absolute", "/etc/passwd", "stories/Story1/aaa.jpg"},
		{"backslash", "..\\Story2\\x.png", "stories/Story1/aaa.jpg"},
		{"current dir", ".", "stories/Story1/aaa.jpg"},
		{"clean relative", "./art/hero.png", "stories/Story1/art/hero.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := objectstore.NewMemoryStore(0)
			store.PutAt("stories/Story1/metadata.json",
				[]byte(`{"title":"T","thumbnail":`+strconv.Quote(tt.thumbnail)+`}`), t1)
			store.PutAt("stories/Story1/aaa.jpg", []byte("x"), t1)

			p, err := ReadPresentation(context.Background(), store, "Story1")
			if err != nil {
				t.Fatal(err)
			}
			if p.ThumbnailKey != tt.want {
				t.Errorf("ThumbnailKey = %q, want %q", p.ThumbnailKey, tt.want)
			}
		})
	}
}

func TestReadPresentation_MalformedMetadata(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)
	store.PutAt("stories/Story1/metadata.json", []byte(`{"title":`), t1)

	p, err := ReadPresentation(context.Background(), store, "Story1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Story1" {
		t.Errorf("Title = %q, want fallback to story id", p.Title)
	}
}

func TestReadPresentation_MetadataFetchError(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)
	store.PutAt("stories/Story1/metadata.json", []byte(`{"title":"Hidden"}`), t1)
	store.FailGet("stories/Story1/metadata.json", errors.New("timeout"))

	p, err := ReadPresentation(context.Background(), store, "Story1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Story1" {
		t.Errorf("Title = %q, want fallback", p.Title)
	}
}

func TestReadPresentation_FirstImageInListingOrder(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)
	store.PutAt("stories/Story1/zebra.png", []byte("z"), t3)
	store.PutAt("stories/Story1/cover.JPG", []byte("c"), t1)
	store.PutAt("stories/Story1/b/inner.webp", []byte("i"), t2)

	p, err := ReadPresentation(context.Background(), store, "Story1")
	if err != nil {
		t.Fatal(err)
	}
	if p.ThumbnailKey != "stories/Story1/b/inner.webp" {
		t.Errorf("ThumbnailKey = %s, want lexicographically first image", p.ThumbnailKey)
	}
}

func TestReadPresentation_LatestAudio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		audio map[string]int // key -> hours after t1
		want  string
	}{
		{"none", nil, ""},
		{"newest wins", map[string]int{"a.mp3": 0, "b.ogg": 2, "c.wav": 1}, "stories/Story1/voicemail/b.ogg"},
		{"tie goes to smaller key", map[string]int{"z.mp3": 1, "m.m4a": 1}, "stories/Story1/voicemail/m.m4a"},
		{"non audio ignored", map[string]int{"late.txt": 5, "early.mp3": 0}, "stories/Story1/voicemail/early.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := objectstore.NewMemoryStore(0)
			for name, h := range tt.audio {
				store.PutAt("stories/Story1/voicemail/"+name, []byte("a"), t1.Add(time.Duration(h)*time.Hour))
			}
			p, err := ReadPresentation(context.Background(), store, "Story1")
			if err != nil {
				t.Fatal(err)
			}
			if p.LatestAudioKey != tt.want {
				t.Errorf("LatestAudioKey = %q, want %q", p.LatestAudioKey, tt.want)
			}
		})
	}
}

func TestReadPresentation_ListErrorKeepsPartial(t *testing.T) {
	t.Parallel()
	store := objectstore.NewMemoryStore(0)
	store.PutAt("stories/Story1/metadata.json", []byte(`{"title":"Partial"}`), t1)
	store.FailList("stories/Story1/", errors.New("throttled"))

	p, err := ReadPresentation(context.Background(), store, "Story1")
	if err == nil {
		t.Fatal("expected listing error")
	}
	if p == nil || p.Title != "Partial" {
		t.Errorf("presentation = %+v, want title read before the failure", p)
	}
}
