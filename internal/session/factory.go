// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/giftwise/internal/dialogue"
)

// Backend names a session storage backend.
type Backend string

const (
	// BackendMemory keeps sessions in process memory (default).
	BackendMemory Backend = "memory"

	// BackendBadger persists sessions in BadgerDB.
	BackendBadger Backend = "badger"
)

// Config selects and tunes a backend.
type Config struct {
	Backend Backend
	Path    string
	TTL     time.Duration

	// InMemory opens Badger without touching disk; used by tests.
	InMemory bool
}

// Store is a dialogue.SessionStore with maintenance hooks.
type Store interface {
	dialogue.SessionStore
	CleanupExpired(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// Factory owns the store and, for Badger, the database handle.
type Factory struct {
	store Store
	db    *badger.DB
}

// NewFactory opens the configured backend.
func NewFactory(cfg Config) (*Factory, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return &Factory{store: NewMemoryStore(cfg.TTL)}, nil

	case BackendBadger:
		opts := badger.DefaultOptions(cfg.Path)
		if cfg.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		}
		opts.Logger = nil // Suppress BadgerDB logs

		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger db for sessions: %w", err)
		}
		return &Factory{store: NewBadgerStore(db, cfg.TTL), db: db}, nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Store returns the session store.
func (f *Factory) Store() Store {
	return f.store
}

// Close closes the underlying BadgerDB if one was opened.
func (f *Factory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
