// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/giftwise/internal/dialogue"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// Backend selects the transport.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendNATS   Backend = "nats"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("events: bus is closed")

// Config configures the bus.
type Config struct {
	Backend      Backend
	NATSURL      string
	CatalogTopic string
	TurnTopic    string

	// QueueGroup load-balances NATS subscriptions across instances.
	QueueGroup string

	// DurableName is the JetStream durable consumer prefix.
	DurableName string

	// BufferSize is the gochannel output buffer.
	BufferSize int64

	// Persistent makes the gochannel replay every message to late
	// subscribers. Memory grows without bound; meant for tests.
	Persistent bool
}

// DefaultConfig returns an in-process bus with the default topics.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendMemory,
		NATSURL:      natsgo.DefaultURL,
		CatalogTopic: DefaultCatalogTopic,
		TurnTopic:    DefaultTurnTopic,
		DurableName:  "giftwise",
		BufferSize:   256,
	}
}

// Bus publishes and subscribes to domain events.
type Bus struct {
	cfg        Config
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[struct{}]
	logger     watermill.LoggerAdapter

	// shared is set when publisher and subscriber are one gochannel.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// NewBus opens the configured transport. A nil logger uses the zerolog
// adapter.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	def := DefaultConfig()
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}
	if cfg.CatalogTopic == "" {
		cfg.CatalogTopic = def.CatalogTopic
	}
	if cfg.TurnTopic == "" {
		cfg.TurnTopic = def.TurnTopic
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}

	b := &Bus{cfg: cfg, logger: logger, breaker: newPublishBreaker(string(cfg.Backend))}

	switch cfg.Backend {
	case BackendMemory:
		pubSub := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
			Persistent:          cfg.Persistent,
		}, logger)
		b.publisher = pubSub
		b.subscriber = pubSub
		b.shared = true

	case BackendNATS:
		if cfg.NATSURL == "" {
			cfg.NATSURL = def.NATSURL
		}
		pub, err := newNATSPublisher(cfg, logger)
		if err != nil {
			return nil, err
		}
		sub, err := newNATSSubscriber(cfg, logger)
		if err != nil {
			_ = pub.Close()
			return nil, err
		}
		b.publisher = pub
		b.subscriber = sub

	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	return b, nil
}

func newNATSPublisher(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

func newNATSSubscriber(cfg Config, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
				natsgo.AckExplicit(),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

func newPublishBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	name = "events_" + name
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Event publish circuit breaker changed state")
		},
	})
}

// Config returns the effective configuration.
func (b *Bus) Config() Config {
	return b.cfg
}

// Publish sends payload as JSON to topic.
func (b *Bus) Publish(ctx context.Context, topic, eventType string, payload any, metadata map[string]string) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataEventType, eventType)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}
	if b.cfg.Backend == BackendNATS {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.publisher.Publish(topic, msg)
	})
	metrics.RecordEventPublished(topic, err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishTurn implements dialogue.TurnPublisher.
func (b *Bus) PublishTurn(ctx context.Context, rec dialogue.TurnRecord) error {
	e := TurnCompleted{EventID: watermill.NewUUID(), TurnRecord: rec}
	if err := e.Validate(); err != nil {
		return err
	}
	return b.Publish(ctx, b.cfg.TurnTopic, TypeTurnCompleted, e, map[string]string{MetadataSessionID: rec.SessionID})
}

// PublishCatalogChanged announces a new catalog snapshot.
func (b *Bus) PublishCatalogChanged(ctx context.Context, e CatalogChanged) error {
	if e.EventID == "" {
		e.EventID = watermill.NewUUID()
	}
	if err := e.Validate(); err != nil {
		return err
	}
	return b.Publish(ctx, b.cfg.CatalogTopic, TypeCatalogChanged, e, nil)
}

// Subscribe returns the message stream for topic. The channel closes when
// ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// Close shuts down the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if !b.shared {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}
