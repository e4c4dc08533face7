// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package events carries domain events between components over Watermill.

Two topics are used:

  - catalog changed: published by the catalog poller when the product file
    content changes; consumed by the index rebuilder.
  - dialogue turns: published by the dialogue machine after every turn;
    consumed by the analytics recorder.

The bus runs on an in-process gochannel pub/sub by default. With backend
"nats" it uses watermill-nats over JetStream, so several instances can share
one analytics consumer. Publishing goes through a circuit breaker so a broker
outage costs one fast failure per turn instead of a timeout.

Payloads are JSON encoded with goccy/go-json.
*/
package events
