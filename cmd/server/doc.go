// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package main is the entry point for the Giftwise server.

Giftwise is a conversational gift recommendation assistant. A shopper talks to
a slot-filling dialogue (name, intent, occasion, recipient) and receives
ranked jewelry recommendations from a semantic index over the product catalog,
with a tag-matching fallback when semantic search is unavailable or weak.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("giftwise")
	├── DataSupervisor ("data-layer")
	│   ├── Index service (vector index builds and rebuilds)
	│   ├── Catalog watch service (optional, CATALOG_RELOAD_INTERVAL)
	│   └── Session cleanup service
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Catalog-changed consumer (triggers index rebuilds)
	│   └── Turn consumer (optional, writes analytics)
	└── APISupervisor ("api-layer")
	    └── HTTP server (chat, WebSocket, products, admin, health)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment variables
 2. Logging: zerolog with JSON or console output
 3. Catalog: JSON product file, embedded with the hashing embedder
 4. Vector index and recommendation engine
 5. Intent classifier: remote model behind a circuit breaker, rule fallback
 6. Session store: in-memory or BadgerDB
 7. Event bus: in-process gochannel or NATS JetStream via Watermill
 8. Analytics store: DuckDB (optional)
 9. Dialogue machine and HTTP handlers
 10. Supervisor tree

# Configuration

Configuration is loaded via Koanf v2 (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Common environment variables:

	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	CATALOG_PATH=/data/catalog.json
	CATALOG_RELOAD_INTERVAL=1m   # 0 disables polling
	SESSION_STORE=memory         # memory or badger
	SESSION_STORE_PATH=/data/sessions
	EVENTS_BACKEND=memory        # memory or nats
	NATS_URL=nats://127.0.0.1:4222
	ANALYTICS_ENABLED=false
	INTENT_REMOTE_URL=           # empty uses the rule classifier only

# Graceful Shutdown

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service within the configured shutdown timeout, after which the session
store, event bus and analytics database are closed.
*/
package main
