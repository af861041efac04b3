// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package models

import "time"

// APIResponse is the envelope every HTTP endpoint returns.
//
// Status is "success" with Data populated, or "error" with Error populated:
//
//	{
//	  "status": "error",
//	  "data": null,
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"},
//	  "error": {"code": "UNAUTHORIZED", "message": "Invalid admin key"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	OK            bool       `json:"ok"`
	LastSync      *time.Time `json:"last_sync,omitempty"`
	LedgerBackend string     `json:"ledger_backend"`
	Uptime        float64    `json:"uptime_seconds"`
}

// RotateResult is returned by POST /admin/rotate-story/{id}.
type RotateResult struct {
	StoryID string       `json:"story_id"`
	Outcome string       `json:"outcome"`
	Ref     *PlatformRef `json:"ref,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// WitnessUploadResult is returned by POST /api/witness.
type WitnessUploadResult struct {
	OK     bool   `json:"ok"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	MIME   string `json:"mime"`
	Posted bool   `json:"posted"`
}

// Confession is one queued submission from POST /confessions, stored as
// JSON under the confession queue prefix for moderation.
type Confession struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	IP        string    `json:"ip,omitempty"`
}

// ConfessionReceipt is returned by POST /confessions.
type ConfessionReceipt struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// Voicemail is one entry of GET /voicemails. ID is the hex SHA-1 of the
// object's file name and addresses /voicemails/{id}/stream.
type Voicemail struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Ext       string    `json:"ext"`
}
