// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/giftwise/internal/dialogue"
)

// Default topic names.
const (
	DefaultCatalogTopic = "giftwise.catalog.changed"
	DefaultTurnTopic    = "giftwise.dialogue.turns"
)

// Metadata keys set on every message.
const (
	MetadataEventType = "event_type"
	MetadataSessionID = "session_id"
)

// Event type values.
const (
	TypeCatalogChanged = "catalog.changed"
	TypeTurnCompleted  = "dialogue.turn"
)

// ErrInvalidEvent is returned for payloads missing required fields.
var ErrInvalidEvent = errors.New("events: invalid event")

// CatalogChanged announces a new catalog snapshot.
type CatalogChanged struct {
	EventID   string    `json:"event_id"`
	Source    string    `json:"source"`
	Products  int       `json:"products"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks required fields.
func (e *CatalogChanged) Validate() error {
	if e.Source == "" {
		return fmt.Errorf("%w: catalog source is required", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// TurnCompleted wraps a dialogue turn record.
type TurnCompleted struct {
	EventID string `json:"event_id"`
	dialogue.TurnRecord
}

// Validate checks required fields.
func (e *TurnCompleted) Validate() error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidEvent)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	return nil
}

// DecodeCatalogChanged unmarshals and validates a catalog message.
func DecodeCatalogChanged(msg *message.Message) (*CatalogChanged, error) {
	var e CatalogChanged
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("%w: unmarshal catalog event: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// DecodeTurn unmarshals and validates a turn message.
func DecodeTurn(msg *message.Message) (*TurnCompleted, error) {
	var e TurnCompleted
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		return nil, fmt.Errorf("%w: unmarshal turn event: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
