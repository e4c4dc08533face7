// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/giftwise/internal/events"
)

// NewTurnHandler returns an events handler that records turn events.
func NewTurnHandler(store *Store) events.HandlerFunc {
	return func(ctx context.Context, msg *message.Message) error {
		e, err := events.DecodeTurn(msg)
		if err != nil {
			return err
		}

		eventID := e.EventID
		if eventID == "" {
			eventID = msg.UUID
		}
		return store.Record(ctx, &Turn{
			EventID:         eventID,
			SessionID:       e.SessionID,
			RequestID:       e.RequestID,
			UserMessage:     e.UserMessage,
			Reply:           e.Reply,
			StateBefore:     string(e.StateBefore),
			StateAfter:      string(e.StateAfter),
			ResultCount:     e.ResultCount,
			Confidence:      e.Confidence,
			UsedFallback:    e.UsedFallback,
			EndConversation: e.EndConversation,
			LatencyMS:       e.LatencyMS,
			Timestamp:       e.Timestamp,
			ProductIDs:      e.ProductIDs,
		})
	}
}
