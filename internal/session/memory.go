// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package session

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/giftwise/internal/dialogue"
)

// DefaultTTL is the idle time after which a session expires.
const DefaultTTL = time.Hour

// MemoryStore is an in-memory dialogue.SessionStore.
// Suitable for development and single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*dialogue.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire ttl after their last
// activity. Non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*dialogue.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the session, or dialogue.ErrSessionNotFound when it
// is missing or expired.
func (s *MemoryStore) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, dialogue.ErrSessionNotFound
	}
	if s.expired(sess) {
		s.mu.Lock()
		if cur, ok := s.sessions[id]; ok && s.expired(cur) {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		return nil, dialogue.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Put stores a copy of sess.
func (s *MemoryStore) Put(ctx context.Context, sess *dialogue.Session) error {
	stored := sess.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = stored
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// CleanupExpired removes every expired session and returns how many.
func (s *MemoryStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions, expired or not.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

func (s *MemoryStore) expired(sess *dialogue.Session) bool {
	return s.now().Sub(sess.LastActive) > s.ttl
}
