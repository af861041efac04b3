// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

/*
Package supervisor runs the long-lived parts of the bridge under a suture v4
supervisor tree.

Tree layout:

	soapbox (root)
	├── data-layer
	│   └── ledger-gc            badger value log GC (badger backend only)
	├── messaging-layer
	│   ├── websocket-hub        dashboard fan-out
	│   ├── event-router         watermill router forwarding bus events
	│   └── rotation-manager     scheduled fleet passes
	└── api-layer
	    └── http-server          admin, witness and health endpoints

A service that returns an error is restarted with backoff. A crash in the
messaging layer does not stop the HTTP server, so /health and the admin
endpoints stay reachable while the rotation loop recovers.

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog-backed slog adapter.

Service adapters live in the services sub-package.
*/
package supervisor
