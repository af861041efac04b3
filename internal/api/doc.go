// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package api serves the HTTP surface of the rotation bridge.

Routes:

	GET  /health                    liveness, last sync time, ledger backend
	GET  /metrics                   Prometheus exposition
	POST /admin/sync-stories        run one fleet pass now
	POST /admin/rotate-stories      retire every post and republish all stories
	POST /admin/rotate-story/{id}   retire and republish one story
	GET  /admin/ledger              every ledger entry
	GET  /admin/stories/{id}        cycle key and presentation, read only
	GET  /admin/events              websocket stream of rotation events
	POST /api/witness               witness video upload (multipart, field "video")
	GET  /stories                   curated stories document
	GET  /spotlights                curated spotlights document
	GET  /confessions               published confessions document
	POST /confessions               queue a confession ({"text": ...} or form field)
	GET  /voicemails                voicemail library
	GET  /voicemails/{id}/stream    voicemail audio, Range requests honoured

Feed routes are public and rate limited. Admin and witness routes require the shared key in the x-soapbox-key header
or the key query parameter. An unset key rejects every such request.

Every response except /metrics, the websocket stream and voicemail audio uses the
models.APIResponse envelope.

Middleware (outer to inner):

  - RequestIDWithLogging: request and correlation IDs on the context
  - RealIP, Recoverer (chi)
  - CORS (go-chi/cors)
  - APISecurityHeaders
  - RequestMetrics: per-route Prometheus counters
  - RateLimit (go-chi/httprate), key checks on protected groups
  - LongRequest on fleet passes, uploads and voicemail streams: read and
    write deadlines pushed out to the long-request timeout
*/
package api
