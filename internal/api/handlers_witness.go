// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/soapbox/internal/validation"
	"github.com/tomtom215/soapbox/internal/witness"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// multipartOverhead allows for form fields and boundaries on top of the
// video itself.
const multipartOverhead = 1 << 20

// Witness accepts a multipart upload with fields storyId, storyTitle and
// the file in "video".
func (h *Handler) Witness(w http.ResponseWriter, r *http.Request) {
	if h.witness == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceDisabled, "Witness uploads are disabled", nil)
		return
	}

	start := time.Now()
	maxBytes := h.witness.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Video exceeds size limit", nil)
			return
		}
		respondError(w, http.StatusBadRequest, CodeValidation, "Expected multipart/form-data", nil)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	storyID := strings.TrimSpace(r.FormValue("storyId"))
	if storyID == "" {
		respondError(w, http.StatusBadRequest, CodeValidation, "storyId required", nil)
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, CodeValidation, "video file required (field name: video)", nil)
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	res, err := h.witness.Upload(r.Context(), witness.Upload{
		StoryID:     storyID,
		StoryTitle:  strings.TrimSpace(r.FormValue("storyTitle")),
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.respondWitnessError(w, err)
		return
	}
	respondSuccess(w, res, start)
}

func (h *Handler) respondWitnessError(w http.ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
	case errors.Is(err, witness.ErrMissingFile):
		respondError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, witness.ErrUnsupportedType):
		respondError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, err.Error(), nil)
	case errors.Is(err, witness.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, err.Error(), nil)
	default:
		respondError(w, http.StatusBadGateway, CodeStorageError, "Upload failed", err)
	}
}

// isBodyTooLarge reports whether err came from the MaxBytesReader limit.
// Some multipart paths flatten the error, so the message is checked too.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}
