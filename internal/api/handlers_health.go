// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/soapbox/internal/models"
)

// Health reports liveness. It never touches the object store or Discord,
// so a platform outage does not fail the probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		OK:            true,
		LedgerBackend: h.ledgerBackend,
		Uptime:        time.Since(h.startTime).Seconds(),
	}
	if last := h.manager.LastSync(); !last.IsZero() {
		last = last.UTC()
		status.LastSync = &last
	}
	respondSuccess(w, status, time.Time{})
}
