// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/soapbox/internal/stories"
	"github.com/tomtom215/soapbox/internal/validation"
)

// SyncStories runs one fleet pass and returns its report.
func (h *Handler) SyncStories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.manager.TriggerSync(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeSyncFailed, "Story sync failed", err)
		return
	}
	respondSuccess(w, report, start)
}

// RotateStories retires every recorded post, clears the ledger and
// republishes the fleet.
func (h *Handler) RotateStories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.manager.ResetAll(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeSyncFailed, "Story rotation failed", err)
		return
	}
	respondSuccess(w, report, start)
}

// RotateStory retires and republishes the story named in the path.
func (h *Handler) RotateStory(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.manager.ResetStory(r.Context(), storyID)
	result := stories.ToRotateResult(res, err)
	if err != nil {
		respondErrorDetails(w, http.StatusBadGateway, CodeRotationFailed, "Story rotation failed",
			map[string]interface{}{"story_id": storyID, "outcome": result.Outcome}, err)
		return
	}
	respondSuccess(w, result, start)
}

// Ledger lists every ledger entry keyed by story ID.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	entries, err := h.manager.Ledger(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternal, "Ledger read failed", err)
		return
	}
	respondSuccess(w, entries, start)
}

// InspectStory reports a story's cycle key, presentation and ledger entry
// without posting anything.
func (h *Handler) InspectStory(w http.ResponseWriter, r *http.Request) {
	storyID, ok := storyIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	inspection, err := h.manager.Inspect(r.Context(), storyID)
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeStorageError, "Story inspection failed", err)
		return
	}
	respondSuccess(w, inspection, start)
}

// Events upgrades to the websocket event stream.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Event stream unavailable", nil)
		return
	}
	h.events.ServeHTTP(w, r)
}

// storyIDParam reads and validates the {id} path parameter, writing a 400
// when it is malformed.
func storyIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validation.IsStoryID(id) {
		respondError(w, http.StatusBadRequest, CodeValidation, "Invalid story id", nil)
		return "", false
	}
	return id, true
}
