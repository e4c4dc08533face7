// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired
// sessions.
var ErrSessionNotFound = errors.New("dialogue: session not found")

// SessionStore persists sessions between turns. Expiry is the store's
// responsibility; the Machine treats ErrSessionNotFound as a new session.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
