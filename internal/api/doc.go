// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package api exposes the dialogue over HTTP and WebSocket using the chi router.

Endpoints:

	POST /api/v1/chat                         one conversation turn
	GET  /api/v1/chat/ws                      conversation turns over a WebSocket
	POST /api/v1/sessions/reset               forget a session
	GET  /api/v1/products/{id}                product details
	GET  /api/v1/admin/index                  vector index and engine counters
	GET  /api/v1/admin/analytics              conversation summary (DuckDB)
	GET  /api/v1/admin/analytics/sessions/{id} recorded turns of one session
	GET  /api/v1/admin/latency                per-route latency percentiles
	GET  /health, /health/live, /health/ready health probes
	GET  /metrics                             Prometheus exposition

Every JSON endpoint answers with the models.APIResponse envelope. A turn never
fails because of its content: unknown sessions start over and unparseable
answers re-prompt. The only client error on /chat is a body without a message
field (400 VALIDATION_ERROR).
*/
package api
