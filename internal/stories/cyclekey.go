// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package stories

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/soapbox/internal/objectstore"
)

// ErrInvalidStoryID is returned for identifiers that cannot name a prefix.
var ErrInvalidStoryID = errors.New("invalid story id")

var (
	imageRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)$`)
	audioRe = regexp.MustCompile(`(?i)\.(mp3|m4a|ogg|wav)$`)
)

const (
	storiesRoot  = "stories/"
	metadataFile = "metadata.json"
	voicemailDir = "voicemail/"
)

// Prefix returns the object-store prefix of a story.
func Prefix(storyID string) string {
	return storiesRoot + storyID + "/"
}

// ComputeCycleKey lists the whole story prefix once and fingerprints it.
// Listing errors are returned to the caller; an empty story yields
// "{storyId}:0".
func ComputeCycleKey(ctx context.Context, store objectstore.Store, storyID string) (string, error) {
	if storyID == "" || strings.Contains(storyID, "/") {
		return "", ErrInvalidStoryID
	}
	objs, err := objectstore.ListAll(ctx, store, Prefix(storyID))
	if err != nil {
		return "", err
	}
	return CycleKeyFromListing(storyID, objs), nil
}

// CycleKeyFromListing fingerprints an already-listed story prefix. Only the
// metadata document, images directly under the prefix and voicemail audio
// count.
func CycleKeyFromListing(storyID string, objs []objectstore.Object) string {
	prefix := Prefix(storyID)
	var newest int64
	for i := range objs {
		if !countsTowardCycle(prefix, objs[i].Key) {
			continue
		}
		if ms := epochMillis(objs[i].LastModified); ms > newest {
			newest = ms
		}
	}
	return storyID + ":" + strconv.FormatInt(newest, 10)
}

func countsTowardCycle(prefix, key string) bool {
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	rest := key[len(prefix):]
	switch {
	case rest == metadataFile:
		return true
	case strings.HasPrefix(rest, voicemailDir):
		return audioRe.MatchString(rest)
	case !strings.Contains(rest, "/"):
		return imageRe.MatchString(rest)
	default:
		return false
	}
}

func epochMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
