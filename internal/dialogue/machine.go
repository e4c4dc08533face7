// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/intent"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
	"github.com/tomtom215/giftwise/internal/recommend"
	"github.com/tomtom215/giftwise/internal/validation"
)

// Recommender is the orchestrator the machine consults in the READY state.
// *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// TurnRecord describes a completed turn for analytics consumers.
type TurnRecord struct {
	SessionID       string    `json:"session_id"`
	RequestID       string    `json:"request_id,omitempty"`
	UserMessage     string    `json:"user_message"`
	Reply           string    `json:"reply"`
	StateBefore     State     `json:"state_before"`
	StateAfter      State     `json:"state_after"`
	ResultCount     int       `json:"result_count"`
	Confidence      string    `json:"confidence,omitempty"`
	UsedFallback    bool      `json:"used_fallback"`
	EndConversation bool      `json:"end_conversation"`
	LatencyMS       int64     `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
	ProductIDs      []string  `json:"product_ids,omitempty"`
}

// TurnPublisher receives a TurnRecord after every turn. Publishing is best
// effort: errors are logged and never change the response.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, rec TurnRecord) error
}

// Config tunes the machine.
type Config struct {
	// HistoryLimit bounds Session.History.
	HistoryLimit int

	// PageSize is the K passed to the recommender; zero uses its default.
	PageSize int
}

// Option customizes a Machine.
type Option func(*Machine)

// WithPublisher sets the turn publisher.
func WithPublisher(p TurnPublisher) Option {
	return func(m *Machine) { m.publisher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(m *Machine) { m.newID = gen }
}

// Machine runs the slot-filling dialogue. It is safe for concurrent use:
// turns for the same session are serialized, different sessions run in
// parallel.
type Machine struct {
	store      SessionStore
	rec        Recommender
	catalog    catalog.Catalog
	classifier intent.Classifier
	publisher  TurnPublisher
	composer   Composer
	locks      *keyedLocks
	cfg        Config
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewMachine wires a dialogue machine. cat may be nil, in which case item
// details are always reported as not found.
func NewMachine(store SessionStore, rec Recommender, cat catalog.Catalog, classifier intent.Classifier, cfg Config, logger zerolog.Logger, opts ...Option) (*Machine, error) {
	if store == nil {
		return nil, errors.New("dialogue: session store is required")
	}
	if rec == nil {
		return nil, errors.New("dialogue: recommender is required")
	}
	if classifier == nil {
		return nil, errors.New("dialogue: intent classifier is required")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}

	m := &Machine{
		store:      store,
		rec:        rec,
		catalog:    cat,
		classifier: classifier,
		locks:      newKeyedLocks(),
		cfg:        cfg,
		logger:     logger.With().Str("component", "dialogue").Logger(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// outcome is what one state step produced.
type outcome struct {
	reply        string
	cards        []ProductCard
	confidence   string
	usedFallback bool
	end          bool
}

// HandleTurn processes one user message. A missing, unknown or malformed
// session id starts a new session. The only error is a context that ends
// while waiting for another turn of the same session.
func (m *Machine) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	start := m.now()

	id := ""
	if req.SessionID != nil {
		id = strings.TrimSpace(*req.SessionID)
	}
	if id == "" || !validation.IsSessionID(id) {
		id = m.newID()
	}
	ctx = logging.ContextWithSessionID(ctx, id)
	logger := m.logger.With().
		Str("session_id", id).
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Logger()

	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("dialogue: wait for session %s: %w", id, err)
	}
	defer unlock()

	sess := m.load(ctx, id, logger)
	before := sess.State

	out := m.step(ctx, sess, normalizeMessage(req.Message), logger)

	now := m.now()
	sess.LastActive = now
	sess.AppendTurn(Turn{UserMessage: req.Message, Reply: out.reply, State: sess.State, At: now}, m.cfg.HistoryLimit)
	if err := m.store.Put(ctx, sess); err != nil {
		metrics.RecordSessionStoreError("put")
		logger.Error().Err(err).Msg("Failed to save session")
	}

	resp := &TurnResponse{
		SessionID:       id,
		Reply:           out.reply,
		Products:        out.cards,
		CurrentState:    sess.State,
		ActionButtons:   Buttons(sess.State, len(out.cards)),
		EndConversation: out.end,
	}
	if resp.Products == nil {
		resp.Products = []ProductCard{}
	}
	if out.confidence != "" {
		c := out.confidence
		resp.ConfidenceScore = &c
	}

	elapsed := m.now().Sub(start)
	metrics.RecordTurn(string(before), string(sess.State), elapsed)
	logger.Debug().
		Str("from", string(before)).
		Str("to", string(sess.State)).
		Int("products", len(resp.Products)).
		Dur("duration", elapsed).
		Msg("Turn handled")

	m.publish(ctx, TurnRecord{
		SessionID:       id,
		RequestID:       logging.RequestIDFromContext(ctx),
		UserMessage:     req.Message,
		Reply:           out.reply,
		StateBefore:     before,
		StateAfter:      sess.State,
		ResultCount:     len(resp.Products),
		Confidence:      out.confidence,
		UsedFallback:    out.usedFallback,
		EndConversation: out.end,
		LatencyMS:       elapsed.Milliseconds(),
		Timestamp:       now,
		ProductIDs:      cardIDs(resp.Products),
	}, logger)

	return resp, nil
}

func cardIDs(cards []ProductCard) []string {
	if len(cards) == 0 {
		return nil
	}
	ids := make([]string, len(cards))
	for i := range cards {
		ids[i] = cards[i].ID
	}
	return ids
}

// Reset deletes a stored session. Unknown sessions are not an error.
func (m *Machine) Reset(ctx context.Context, id string) error {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		metrics.RecordSessionStoreError("delete")
		return fmt.Errorf("dialogue: delete session %s: %w", id, err)
	}
	metrics.RecordReset()
	return nil
}

// InFlight returns the number of sessions with a turn in progress.
func (m *Machine) InFlight() int {
	return m.locks.Len()
}

func (m *Machine) load(ctx context.Context, id string, logger zerolog.Logger) *Session {
	sess, err := m.store.Get(ctx, id)
	switch {
	case err == nil && sess != nil:
		state, ok := ParseState(string(sess.State))
		if !ok {
			logger.Warn().Str("state", string(sess.State)).Msg("Unknown persisted state, restarting dialogue")
			sess.Reset()
		}
		sess.State = state
		sess.ID = id
		return sess
	case err == nil, errors.Is(err, ErrSessionNotFound):
		logger.Debug().Msg("Starting new session")
	default:
		metrics.RecordSessionStoreError("get")
		logger.Warn().Err(err).Msg("Failed to load session, starting new one")
	}
	return NewSession(id, m.now())
}

func (m *Machine) step(ctx context.Context, sess *Session, msg string, logger zerolog.Logger) outcome {
	if isReset(msg) {
		sess.Reset()
		metrics.RecordReset()
		return outcome{reply: m.composer.Prompt(AwaitingName, sess)}
	}
	if msg == "" {
		return outcome{reply: m.composer.Prompt(sess.State, sess)}
	}

	switch sess.State {
	case AwaitingName:
		name, ok := ExtractName(msg)
		if !ok {
			return outcome{reply: m.composer.Clarify(AwaitingName, sess)}
		}
		sess.Slots.Name = name
		m.advance(sess, AwaitingIntent, logger)
		return outcome{reply: m.composer.Prompt(AwaitingIntent, sess)}

	case AwaitingIntent:
		switch it := m.classify(ctx, msg, logger); it {
		case intent.Special:
			sess.Slots.Intent = string(it)
			m.advance(sess, AwaitingOccasion, logger)
			return outcome{reply: m.composer.Prompt(AwaitingOccasion, sess)}
		case intent.Browsing:
			sess.Slots.Intent = string(it)
			m.advance(sess, Ready, logger)
			return m.recommend(ctx, sess, false, logger)
		default:
			return outcome{reply: m.composer.Clarify(AwaitingIntent, sess)}
		}

	case AwaitingOccasion:
		occasion, ok := ExtractOccasion(msg)
		if !ok {
			return outcome{reply: m.composer.Clarify(AwaitingOccasion, sess)}
		}
		sess.Slots.Occasion = occasion
		m.advance(sess, AwaitingRecipient, logger)
		return outcome{reply: m.composer.Prompt(AwaitingRecipient, sess)}

	case AwaitingRecipient:
		recipient, ok := ExtractRecipient(msg)
		if !ok {
			return outcome{reply: m.composer.Clarify(AwaitingRecipient, sess)}
		}
		sess.Slots.Recipient = recipient
		m.advance(sess, Ready, logger)
		return m.recommend(ctx, sess, false, logger)

	default:
		return m.ready(ctx, sess, msg, logger)
	}
}

// ready handles commands and refinements once the slots are filled.
func (m *Machine) ready(ctx context.Context, sess *Session, msg string, logger zerolog.Logger) outcome {
	lower := strings.ToLower(msg)
	switch {
	case lower == ValueShowMore || lower == "show more" || lower == "more":
		return m.recommend(ctx, sess, true, logger)

	case lower == ValueAdjustFilters || lower == "adjust filters":
		sess.Filters = Filters{}
		sess.ShownIDs = nil
		return outcome{reply: m.composer.AdjustFilters()}

	case lower == ValueBrowseAll || lower == "browse all":
		sess.Filters = Filters{BrowseAll: true}
		return m.recommend(ctx, sess, false, logger)

	case lower == ValueRequestStaff:
		return outcome{reply: m.composer.Staff(sess), end: true}

	case len(msg) > len(ItemDetailsPrefix) && strings.EqualFold(msg[:len(ItemDetailsPrefix)], ItemDetailsPrefix):
		return m.itemDetails(ctx, strings.TrimSpace(msg[len(ItemDetailsPrefix):]), logger)
	}

	r := ParseRefinement(msg)
	if r.Category != "" {
		sess.Filters.Category = r.Category
	}
	if r.PriceCeiling != nil {
		sess.Filters.PriceCeiling = r.PriceCeiling
	}
	sess.Filters.FreeText = r.FreeText
	sess.Filters.BrowseAll = false
	return m.recommend(ctx, sess, false, logger)
}

// recommend fetches a page. A new search restarts the shown-id sequence;
// more continues it.
func (m *Machine) recommend(ctx context.Context, sess *Session, more bool, logger zerolog.Logger) outcome {
	req := recommend.Request{Query: queryFor(sess), K: m.cfg.PageSize}
	if more {
		req.Exclude = slices.Clone(sess.ShownIDs)
	} else {
		sess.ShownIDs = nil
	}

	resp, err := m.rec.Recommend(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Msg("Recommendation failed")
	}
	if resp == nil || len(resp.Results) == 0 {
		return outcome{reply: m.composer.NoResults(more), usedFallback: resp != nil && resp.UsedFallback}
	}

	for i := range resp.Results {
		sess.ShownIDs = append(sess.ShownIDs, resp.Results[i].Product.ID)
	}
	return outcome{
		reply:        m.composer.Results(sess, resp, more),
		cards:        m.composer.Cards(resp.Results),
		confidence:   string(resp.TopConfidence()),
		usedFallback: resp.UsedFallback,
	}
}

func (m *Machine) itemDetails(ctx context.Context, id string, logger zerolog.Logger) outcome {
	if m.catalog == nil || id == "" {
		return outcome{reply: m.composer.ItemNotFound()}
	}
	p, err := m.catalog.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, catalog.ErrProductNotFound) {
			logger.Warn().Err(err).Str("product_id", id).Msg("Product lookup failed")
		}
		return outcome{reply: m.composer.ItemNotFound()}
	}
	return outcome{
		reply: m.composer.ItemDetails(p),
		cards: []ProductCard{productCard(p)},
	}
}

func (m *Machine) classify(ctx context.Context, msg string, logger zerolog.Logger) intent.Intent {
	it, err := m.classifier.Classify(ctx, msg)
	if err != nil {
		logger.Warn().Err(err).Msg("Intent classification failed")
		return intent.Unknown
	}
	return it
}

// advance moves forward along the transition table. Illegal moves are a
// programming error; they are logged and ignored.
func (m *Machine) advance(sess *Session, to State, logger zerolog.Logger) {
	if !CanTransition(sess.State, to) {
		logger.Error().Str("from", string(sess.State)).Str("to", string(to)).Msg("Illegal state transition")
		return
	}
	sess.State = to
}

func (m *Machine) publish(ctx context.Context, rec TurnRecord, logger zerolog.Logger) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishTurn(ctx, rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish turn event")
	}
}

func queryFor(sess *Session) recommend.Query {
	if sess.Filters.BrowseAll {
		return recommend.Query{}
	}
	return recommend.Query{
		Occasion:     sess.Slots.Occasion,
		Recipient:    sess.Slots.Recipient,
		FreeText:     sess.Filters.FreeText,
		Category:     sess.Filters.Category,
		PriceCeiling: sess.Filters.PriceCeiling,
	}
}

func normalizeMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.EqualFold(msg, HandshakeMessage) {
		return ""
	}
	return msg
}

func isReset(msg string) bool {
	switch strings.ToLower(msg) {
	case ValueStartOver, "start over", "reset", "restart":
		return true
	}
	return false
}
