// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/models"
	"github.com/tomtom215/soapbox/internal/objectstore"
)

// ReadPresentation builds the display bundle of a story.
//
// A missing or malformed metadata.json falls back to defaults. When metadata
// names no thumbnail, the first image in listing order is used; the store
// lists keys lexicographically, so that is the alphabetically first image at
// any depth under the prefix. The latest voicemail is the audio object with
// the newest LastModified, ties going to the smaller key.
//
// The returned presentation is never nil. A listing error is returned
// alongside a presentation holding whatever could be read before it.
func ReadPresentation(ctx context.Context, store objectstore.Store, storyID string) (*models.Presentation, error) {
	prefix := Prefix(storyID)
	p := &models.Presentation{StoryID: storyID, Title: storyID}

	var meta models.StoryMetadata
	if err := objectstore.GetJSON(ctx, store, prefix+metadataFile, &meta); err != nil {
		meta = models.StoryMetadata{}
		logging.Ctx(ctx).Debug().Err(err).Str("story_id", storyID).Msg("No usable metadata, using defaults")
	}
	if meta.Title != "" {
		p.Title = meta.Title
	}
	p.Subtitle = meta.Subtitle
	if meta.Thumbnail != "" {
		if key, ok := thumbnailKey(prefix, meta.Thumbnail); ok {
			p.ThumbnailKey = key
		} else {
			logging.Ctx(ctx).Warn().Str("story_id", storyID).Str("thumbnail", meta.Thumbnail).
				Msg("Thumbnail escapes story folder, ignoring it")
		}
	}

	objs, err := objectstore.ListAll(ctx, store, prefix)
	if err != nil {
		return p, fmt.Errorf("read presentation %s: %w", storyID, err)
	}
	if p.ThumbnailKey == "" {
		p.ThumbnailKey = firstImage(objs)
	}
	p.LatestAudioKey = latestAudio(prefix, objs)
	return p, nil
}

// thumbnailKey resolves a metadata thumbnail against the story prefix. Names
// that are absolute or climb out of the story folder are rejected.
func thumbnailKey(prefix, name string) (string, bool) {
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", false
		}
	}
	key := path.Join(prefix, name)
	if !strings.HasPrefix(key, prefix) || key == strings.TrimSuffix(prefix, "/") {
		return "", false
	}
	return key, true
}

func firstImage(objs []objectstore.Object) string {
	for i := range objs {
		if imageRe.MatchString(objs[i].Key) {
			return objs[i].Key
		}
	}
	return ""
}

func latestAudio(prefix string, objs []objectstore.Object) string {
	vm := prefix + voicemailDir
	var (
		best   string
		bestMs int64
		found  bool
	)
	for i := range objs {
		key := objs[i].Key
		if !strings.HasPrefix(key, vm) || !audioRe.MatchString(key) {
			continue
		}
		ms := epochMillis(objs[i].LastModified)
		if !found || ms > bestMs || (ms == bestMs && key < best) {
			best, bestMs, found = key, ms, true
		}
	}
	return best
}
