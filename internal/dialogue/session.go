// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"slices"
	"time"
)

// DefaultHistoryLimit bounds Session.History.
const DefaultHistoryLimit = 20

// Slots are the answers collected by the dialogue.
type Slots struct {
	Name      string `json:"name,omitempty"`
	Intent    string `json:"intent,omitempty"`
	Occasion  string `json:"occasion,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

// Filters are the refinements applied while recommending.
type Filters struct {
	Category     string   `json:"category,omitempty"`
	PriceCeiling *float64 `json:"price_ceiling,omitempty"`
	FreeText     string   `json:"free_text,omitempty"`

	// BrowseAll drops slots and free text from the query.
	BrowseAll bool `json:"browse_all,omitempty"`
}

// Turn is one exchange kept in the session history.
type Turn struct {
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	State       State     `json:"state"`
	At          time.Time `json:"at"`
}

// Session is the persisted conversation. The Machine owns it for the
// duration of a turn.
type Session struct {
	ID      string  `json:"id"`
	State   State   `json:"state"`
	Slots   Slots   `json:"slots"`
	Filters Filters `json:"filters"`

	// ShownIDs are the products shown in the current browsing sequence.
	ShownIDs []string `json:"shown_ids,omitempty"`

	History    []Turn    `json:"history,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewSession creates a session in InitialState.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		State:      InitialState,
		CreatedAt:  now,
		LastActive: now,
	}
}

// Reset clears every slot, filter and shown product and returns to
// InitialState. History is kept.
func (s *Session) Reset() {
	s.State = InitialState
	s.Slots = Slots{}
	s.Filters = Filters{}
	s.ShownIDs = nil
}

// AppendTurn records a turn, keeping at most limit entries.
func (s *Session) AppendTurn(t Turn, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.History = append(s.History, t)
	if over := len(s.History) - limit; over > 0 {
		s.History = slices.Clone(s.History[over:])
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.ShownIDs = slices.Clone(s.ShownIDs)
	c.History = slices.Clone(s.History)
	if s.Filters.PriceCeiling != nil {
		v := *s.Filters.PriceCeiling
		c.Filters.PriceCeiling = &v
	}
	return &c
}
