// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

// Error codes returned in APIError.Code.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeRotationFailed   = "ROTATION_FAILED"
	CodeSyncFailed       = "SYNC_FAILED"
	CodeStorageError     = "STORAGE_ERROR"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeServiceDisabled  = "SERVICE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)
