// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/giftwise/internal/catalog"
)

func fixtureProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "RIN001", Name: "Platinum Solitaire", Category: "ring", Price: 2450,
			StyleTags: []string{"classic"}, OccasionTags: []string{"engagement", "anniversary"}, RecipientTags: []string{"bride", "fiancée"}},
		{ID: "RIN002", Name: "Halo Ring", Category: "ring", Price: 1200,
			StyleTags: []string{"modern"}, OccasionTags: []string{"engagement"}, RecipientTags: []string{"girlfriend", "fiancee"}},
		{ID: "NEC014", Name: "Heart Locket", Category: "necklace", Price: 320.5,
			StyleTags: []string{"vintage"}, OccasionTags: []string{"birthday", "mothers day"}, RecipientTags: []string{"mother"}},
		{ID: "EAR020", Name: "Pearl Studs", Category: "earrings", Price: 145,
			StyleTags: []string{"minimalist"}, OccasionTags: []string{"everyday wear", "birthday"}, RecipientTags: []string{"friend", "mother"}},
		{ID: "BRA031", Name: "Tennis Bracelet", Category: "bracelet", Price: 1890,
			StyleTags: []string{"elegant"}, OccasionTags: []string{"anniversary", "wedding"}, RecipientTags: []string{"wife"}},
		{ID: "NEC015", Name: "Bar Pendant", Category: "necklace", Price: 320.5,
			StyleTags: []string{"delicate"}, OccasionTags: []string{"birthday"}, RecipientTags: []string{"daughter"}},
		{ID: "RIN003", Name: "Stacking Band", Category: "ring", Price: 480,
			StyleTags: []string{"bohemian"}, OccasionTags: []string{"graduation"}, RecipientTags: []string{"friend"}},
	}
}

func fixtureCatalog() *catalog.Static {
	return catalog.NewStatic(fixtureProducts())
}

func productByID(t *testing.T, id string) catalog.Product {
	t.Helper()
	for _, p := range fixtureProducts() {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("no fixture product %s", id)
	return catalog.Product{}
}

// scripted is a Recommender returning canned results or an error.
type scripted struct {
	name    string
	results []Result
	err     error
	block   bool
	calls   atomic.Int32
	limits  []int
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Recommend(ctx context.Context, q Query, limit int) ([]Result, error) {
	s.calls.Add(1)
	s.limits = append(s.limits, limit)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out, nil
}

func semanticResult(t *testing.T, id string, sim float64) Result {
	t.Helper()
	return Result{Product: productByID(t, id), Score: sim, Similarity: &sim, Source: SourceSemantic}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Product.ID
	}
	return out
}

func ptr(f float64) *float64 { return &f }
