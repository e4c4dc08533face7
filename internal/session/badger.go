// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/giftwise/internal/dialogue"
)

// sessionKeyPrefix namespaces session entries in a shared Badger database.
const sessionKeyPrefix = "session:"

// BadgerStore persists sessions in BadgerDB. Entries carry a Badger TTL that
// is refreshed on every Put, so idle sessions disappear without a sweep.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore wraps an open database. Non-positive ttl uses DefaultTTL.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BadgerStore{db: db, ttl: ttl}
}

// Get retrieves a session by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	var sess dialogue.Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return dialogue.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, err
	}

	// Badger TTLs have one-second resolution; LastActive is authoritative.
	if time.Since(sess.LastActive) > s.ttl {
		return nil, dialogue.ErrSessionNotFound
	}
	return &sess, nil
}

// Put stores a session and restarts its TTL.
func (s *BadgerStore) Put(ctx context.Context, sess *dialogue.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(sess.ID), data).WithTTL(s.ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

// Delete removes a session by ID. Deleting a missing session is not an error.
func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// CleanupExpired runs Badger value-log GC so space held by expired entries
// is reclaimed. It returns 0: Badger drops expired keys on its own.
func (s *BadgerStore) CleanupExpired(ctx context.Context) (int, error) {
	err := s.db.RunValueLogGC(0.5)
	switch {
	case err == nil, errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrRejected), errors.Is(err, badger.ErrGCInMemoryMode):
		return 0, nil
	default:
		return 0, fmt.Errorf("value log gc: %w", err)
	}
}

// Count returns the number of live sessions in the store.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}
