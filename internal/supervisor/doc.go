// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package supervisor runs the long-lived Giftwise services under a suture/v4
supervisor tree.

Tree layout:

	giftwise (root)
	├── data-layer       index rebuilder, catalog watcher, session cleanup
	├── messaging-layer  event consumers (catalog changes, turn analytics)
	└── api-layer        HTTP server

A failing service is restarted with suture's backoff without disturbing its
siblings: a broken NATS connection stops analytics, not conversations.
Supervisor events are logged through sutureslog into the zerolog logger.
*/
package supervisor
