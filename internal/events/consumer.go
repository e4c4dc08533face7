// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// HandlerFunc processes one message. On NATS a returned error nacks the
// message for redelivery. ErrInvalidEvent is always acked and dropped, and
// so is every error on the in-process bus, which redelivers a nacked
// message immediately.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// Consumer runs a handler over one topic. It implements suture.Service.
type Consumer struct {
	name    string
	topic   string
	bus     *Bus
	handler HandlerFunc
}

// NewConsumer creates a consumer; name identifies it in logs and in the
// supervisor tree.
func NewConsumer(name string, bus *Bus, topic string, handler HandlerFunc) *Consumer {
	return &Consumer{name: name, topic: topic, bus: bus, handler: handler}
}

// Serve consumes until ctx is done.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	logger := logging.With().Str("component", "events").Str("consumer", c.name).Str("topic", c.topic).Logger()
	logger.Info().Msg("Event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", c.topic)
			}
			if err := c.process(ctx, msg); err != nil {
				logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Event processing failed")
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) error {
	if id := msg.Metadata.Get("request_id"); id != "" {
		ctx = logging.ContextWithRequestID(ctx, id)
	}

	err := c.handler(ctx, msg)
	metrics.RecordEventConsumed(c.topic, err)

	switch {
	case err == nil, errors.Is(err, ErrInvalidEvent), c.bus.Config().Backend != BackendNATS:
		msg.Ack()
	default:
		msg.Nack()
	}
	return err
}

// String implements fmt.Stringer for suture logging.
func (c *Consumer) String() string {
	return "events-consumer-" + c.name
}
