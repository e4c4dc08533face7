// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/intent"
	"github.com/tomtom215/giftwise/internal/recommend"
)

func fixtureProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "RIN010", Name: "Solitaire Engagement Ring", Category: "ring", Price: 3200, Metal: "platinum",
			Gemstones: []string{"diamond"}, StyleTags: []string{"classic"},
			OccasionTags: []string{"engagement"}, RecipientTags: []string{"fiancée", "partner"}},
		{ID: "RIN011", Name: "Halo Ring", Category: "ring", Price: 2100, Metal: "white gold",
			StyleTags: []string{"modern"}, OccasionTags: []string{"engagement"}, RecipientTags: []string{"fiancee"}},
		{ID: "RIN012", Name: "Eternity Band", Category: "ring", Price: 1500, Metal: "yellow gold",
			StyleTags: []string{"timeless"}, OccasionTags: []string{"engagement", "anniversary"}, RecipientTags: []string{"wife"}},
		{ID: "NEC020", Name: "Pearl Pendant", Category: "necklace", Price: 420,
			StyleTags: []string{"elegant"}, OccasionTags: []string{"birthday"}, RecipientTags: []string{"mother"},
			Description: "A single freshwater pearl on a fine chain."},
		{ID: "EAR030", Name: "Diamond Studs", Category: "earrings", Price: 950,
			StyleTags: []string{"minimalist"}, OccasionTags: []string{"anniversary"}, RecipientTags: []string{"wife", "partner"}},
		{ID: "BRA040", Name: "Charm Bracelet", Category: "bracelet", Price: 180,
			StyleTags: []string{"playful"}, OccasionTags: []string{"birthday"}, RecipientTags: []string{"friend", "daughter"}},
		{ID: "NEC021", Name: "Heart Locket", Category: "necklace", Price: 260,
			StyleTags: []string{"vintage"}, OccasionTags: []string{"mother's day"}, RecipientTags: []string{"mother"}},
	}
}

// memStore is a map-backed SessionStore that also detects overlapping turns
// for one session.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	active   map[string]int
	overlap  atomic.Bool
	getErr   error
	putErr   error
	puts     atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*Session), active: make(map[string]int)}
}

func (s *memStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[id]++
	if s.active[id] > 1 {
		s.overlap.Store(true)
	}
	if s.getErr != nil {
		return nil, s.getErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *memStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts.Add(1)
	s.active[sess.ID]--
	if s.putErr != nil {
		return s.putErr
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *memStore) seed(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
}

func (s *memStore) session(t *testing.T, id string) *Session {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		t.Fatalf("session %s not stored", id)
	}
	return sess.Clone()
}

// semanticStub ranks a fixed list of products, honoring hard constraints
// and limit like the real semantic recommender.
type semanticStub struct {
	products map[string]catalog.Product
	ranking  []string
	sims     []float64
	block    bool

	mu      sync.Mutex
	queries []recommend.Query
}

func newSemanticStub(ranking []string, sims []float64) *semanticStub {
	byID := make(map[string]catalog.Product)
	for _, p := range fixtureProducts() {
		byID[p.ID] = p
	}
	return &semanticStub{products: byID, ranking: ranking, sims: sims}
}

func (s *semanticStub) Name() string { return "semantic" }

func (s *semanticStub) Recommend(ctx context.Context, q recommend.Query, limit int) ([]recommend.Result, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if q.Text() == "" {
		return nil, recommend.ErrNoQueryText
	}
	var out []recommend.Result
	for i, id := range s.ranking {
		p := s.products[id]
		if !q.Admits(&p) {
			continue
		}
		sim := s.sims[i]
		out = append(out, recommend.Result{Product: p, Score: sim, Similarity: &sim, Source: recommend.SourceSemantic})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *semanticStub) lastQuery(t *testing.T) recommend.Query {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		t.Fatal("semantic recommender was not called")
	}
	return s.queries[len(s.queries)-1]
}

// allHighStub returns every fixture product with similarity >= 0.7.
func allHighStub() *semanticStub {
	return newSemanticStub(
		[]string{"RIN010", "RIN011", "RIN012", "EAR030", "NEC020", "NEC021", "BRA040"},
		[]float64{0.93, 0.9, 0.86, 0.8, 0.75, 0.72, 0.7},
	)
}

type errClassifier struct{}

func (errClassifier) Classify(context.Context, string) (intent.Intent, error) {
	return intent.Unknown, errors.New("classifier down")
}

type recordingPublisher struct {
	mu      sync.Mutex
	records []TurnRecord
	err     error
}

func (p *recordingPublisher) PublishTurn(_ context.Context, rec TurnRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return p.err
}

type harness struct {
	machine  *Machine
	store    *memStore
	semantic *semanticStub
	engine   *recommend.Engine
}

func newHarness(t *testing.T, semantic *semanticStub, opts ...Option) *harness {
	t.Helper()

	cat := catalog.NewStatic(fixtureProducts())
	cfg := recommend.DefaultConfig()
	cfg.SemanticTimeout = 30 * time.Millisecond

	var sem recommend.Recommender
	if semantic != nil {
		sem = semantic
	}
	engine, err := recommend.NewEngine(cfg, sem, recommend.NewTagRecommender(cat), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	store := newMemStore()
	var n atomic.Int32
	opts = append([]Option{WithIDGenerator(func() string {
		return fmt.Sprintf("sess-%d", n.Add(1))
	})}, opts...)

	m, err := NewMachine(store, engine, cat, intent.NewFallbackClassifier(nil, 0), Config{}, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return &harness{machine: m, store: store, semantic: semantic, engine: engine}
}

// say sends message on session id ("" starts a new session).
func (h *harness) say(t *testing.T, id, message string) *TurnResponse {
	t.Helper()
	req := TurnRequest{Message: message}
	if id != "" {
		req.SessionID = &id
	}
	resp, err := h.machine.HandleTurn(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleTurn(%q): %v", message, err)
	}
	return resp
}

// readySession seeds a session with every slot filled.
func (h *harness) readySession(id, occasion, recipient string) {
	sess := NewSession(id, time.Now())
	sess.State = Ready
	sess.Slots = Slots{Name: "Alex", Intent: "special", Occasion: occasion, Recipient: recipient}
	h.store.seed(sess)
}

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
