// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package models defines the domain types shared across Soapbox packages:
// the platform reference stored per story, the ledger entry, the story
// presentation bundle, and the JSON envelope returned by the HTTP API.
//
// JSON tags on LedgerEntry and PlatformRef match the stories-sync.json file
// written by earlier deployments so it can be imported unchanged.
package models
