// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

/*
Package session provides dialogue.SessionStore implementations.

Two backends are available:

  - MemoryStore keeps sessions in a map and expires them lazily on read and
    periodically through CleanupExpired. Sessions are lost on restart.
  - BadgerStore persists sessions in BadgerDB under the "session:" key
    prefix, JSON encoded with goccy/go-json. Expiry uses Badger's native
    entry TTL, refreshed on every Put.

Both stores copy sessions on the way in and out, so the state machine may
mutate the value it loaded without affecting concurrent readers.

Use NewFactory to select a backend from configuration:

	factory, err := session.NewFactory(session.Config{Backend: "badger", Path: "/data/sessions", TTL: time.Hour})
	if err != nil {
		return err
	}
	defer factory.Close()
	store := factory.Store()
*/
package session
