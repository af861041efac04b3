// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/soapbox/internal/feeds"
	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/validation"
)

// maxConfessionBody bounds a confession request body.
const maxConfessionBody = 2 << 20

var voicemailIDPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Stories returns the curated stories document.
func (h *Handler) Stories(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feeds.FeedStories)
}

// Spotlights returns the curated spotlights document.
func (h *Handler) Spotlights(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feeds.FeedSpotlights)
}

// Confessions returns the published confessions document.
func (h *Handler) Confessions(w http.ResponseWriter, r *http.Request) {
	h.serveFeed(w, r, feeds.FeedConfessions)
}

func (h *Handler) serveFeed(w http.ResponseWriter, r *http.Request, feed feeds.Feed) {
	if h.feeds == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Feeds are disabled", nil)
		return
	}
	start := time.Now()
	doc, err := h.feeds.Feed(r.Context(), feed)
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeStorageError, "Feed unavailable", err)
		return
	}
	respondSuccess(w, doc, start)
}

type confessionBody struct {
	Text string `json:"text"`
}

// SubmitConfession queues a confession. The text comes from a JSON body
// or a form field named "text".
func (h *Handler) SubmitConfession(w http.ResponseWriter, r *http.Request) {
	if h.feeds == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Feeds are disabled", nil)
		return
	}
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxConfessionBody)

	text, err := confessionText(r)
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Confession too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, CodeValidation, "Malformed request body", nil)
		return
	}

	receipt, err := h.feeds.SubmitConfession(r.Context(), text, clientIP(r))
	if err != nil {
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			apiErr := verr.ToAPIError()
			respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
			return
		}
		respondError(w, http.StatusBadGateway, CodeStorageError, "Confession could not be queued", err)
		return
	}
	respondSuccess(w, receipt, start)
}

func confessionText(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxConfessionBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return "", err
		}
		return r.FormValue("text"), nil
	default:
		var body confessionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", err
		}
		return body.Text, nil
	}
}

// clientIP is the request's remote host. RealIP has already applied any
// X-Forwarded-For or X-Real-IP header.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Voicemails lists the voicemail library.
func (h *Handler) Voicemails(w http.ResponseWriter, r *http.Request) {
	if h.feeds == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Feeds are disabled", nil)
		return
	}
	start := time.Now()
	list, err := h.feeds.Voicemails(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeStorageError, "Voicemails unavailable", err)
		return
	}
	respondSuccess(w, list, start)
}

// StreamVoicemail serves one voicemail's audio, honouring Range requests.
func (h *Handler) StreamVoicemail(w http.ResponseWriter, r *http.Request) {
	if h.feeds == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Feeds are disabled", nil)
		return
	}
	id := strings.ToLower(chi.URLParam(r, "id"))
	if !voicemailIDPattern.MatchString(id) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
		return
	}

	st, err := h.feeds.OpenVoicemail(r.Context(), id)
	if errors.Is(err, feeds.ErrNotFound) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadGateway, CodeStorageError, "Voicemail unavailable", err)
		return
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("voicemail", st.Name).Msg("Closing voicemail stream failed")
		}
	}()

	w.Header().Set("Content-Type", st.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="voicemail%s"`, st.Ext))
	http.ServeContent(w, r, "", st.ModTime, st)
}
