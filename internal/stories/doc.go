// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package stories keeps one Discord post per story in sync with the story's
content in the object store.

A story is the object-store prefix stories/{storyId}/:

	stories/Story1/metadata.json        optional {title, subtitle, thumbnail}
	stories/Story1/cover.jpg            thumbnail candidates
	stories/Story1/voicemail/call.mp3   voicemail audio
	stories/Story1/witnesses/...        ignored here, see package witness

Components:
  - ComputeCycleKey: fingerprints a story as "{storyId}:{maxLastModifiedMillis}"
  - ReadPresentation: title, subtitle, thumbnail and latest voicemail
  - Engine: compares the fingerprint with the ledger and retires the old
    post before publishing a new one
  - Fleet: discovers stories and rotates them one after another
  - Manager: runs the fleet on a ticker and serialises admin-triggered passes

Thread Safety:

Engine holds a per-story mutex for the whole rotation, so the poll loop and
admin requests never publish the same story twice. Manager additionally
serialises whole fleet passes.
*/
package stories
