// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

// Package services adapts the bridge's long-running components to
// suture.Service so the supervisor tree can start, stop and restart them.
//
// Each adapter depends on a small interface rather than the concrete type,
// which keeps this package free of imports on the domain packages and lets
// the tests drive the adapters with fakes.
package services
