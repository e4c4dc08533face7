// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/embedding"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

type fakeSearcher struct {
	hits   []vectorindex.Hit
	err    error
	gotM   int
	gotLen int
}

func (f *fakeSearcher) Search(_ context.Context, query []float32, m int) ([]vectorindex.Hit, error) {
	f.gotM = m
	f.gotLen = len(query)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func TestSemanticRecommender_PostFiltersAfterRanking(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{hits: []vectorindex.Hit{
		{ProductID: "RIN001", Similarity: 0.91},
		{ProductID: "NEC014", Similarity: 0.80},
		{ProductID: "GONE99", Similarity: 0.75},
		{ProductID: "RIN002", Similarity: 0.70},
		{ProductID: "RIN003", Similarity: 0.70},
	}}
	rec := NewSemanticRecommender(embedding.NewHashingEmbedder(32), searcher, fixtureCatalog())

	got, err := rec.Recommend(context.Background(), Query{FreeText: "a ring", Category: "ring", PriceCeiling: ptr(2000)}, 12)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// RIN001 is over the ceiling, NEC014 the wrong category and GONE99 is
	// not in the catalog; the RIN002/RIN003 tie goes to the pricier ring.
	want := []string{"RIN002", "RIN003"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Recommend() ids = %v, want %v", ids(got), want)
	}
	if searcher.gotM != 12 || searcher.gotLen != 32 {
		t.Errorf("Search called with m=%d len=%d, want m=12 len=32", searcher.gotM, searcher.gotLen)
	}
	for _, r := range got {
		if r.Source != SourceSemantic || r.Similarity == nil || *r.Similarity != r.Score {
			t.Errorf("result %s: source=%s similarity=%v score=%v", r.Product.ID, r.Source, r.Similarity, r.Score)
		}
	}
}

func TestSemanticRecommender_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    Query
		searcher *fakeSearcher
		want     error
	}{
		{"no text", Query{Category: "ring"}, &fakeSearcher{}, ErrNoQueryText},
		{"only stopwords", Query{FreeText: "something for me"}, &fakeSearcher{}, ErrNoQueryText},
		{"index not built", Query{Occasion: "birthday"}, &fakeSearcher{err: vectorindex.ErrNotBuilt}, vectorindex.ErrNotBuilt},
		{"dimension mismatch", Query{Occasion: "birthday"}, &fakeSearcher{err: vectorindex.ErrDimensionMismatch}, vectorindex.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := NewSemanticRecommender(embedding.NewHashingEmbedder(16), tt.searcher, fixtureCatalog())
			if _, err := rec.Recommend(context.Background(), tt.query, 5); !errors.Is(err, tt.want) {
				t.Errorf("Recommend() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSemanticRecommender_EndToEnd(t *testing.T) {
	t.Parallel()

	emb := embedding.NewHashingEmbedder(256)
	products := fixtureProducts()
	for i := range products {
		vec, err := emb.Embed(context.Background(), products[i].EmbeddingText())
		if err != nil {
			t.Fatal(err)
		}
		products[i].Embedding = vec
	}
	ix, err := vectorindex.New(256, 0)
	if err != nil {
		t.Fatal(err)
	}
	ix.Build(products)

	rec := NewSemanticRecommender(emb, ix, fixtureCatalog())
	got, err := rec.Recommend(context.Background(), Query{Occasion: "engagement", Recipient: "fiancée"}, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("Recommend() returned %d results, want at least 2", len(got))
	}
	top := map[string]bool{got[0].Product.ID: true, got[1].Product.ID: true}
	if !top["RIN001"] || !top["RIN002"] {
		t.Errorf("top two = %v, want the engagement rings", ids(got[:2]))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("results not sorted by similarity at %d", i)
		}
	}
}

func TestEngine_TiedSimilarityBeyondCandidateCapRanksByPrice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	embedder := embedding.NewHashingEmbedder(32)
	vec, err := embedder.Embed(ctx, "birthday necklace")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	products := make([]catalog.Product, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, catalog.Product{
			ID:        fmt.Sprintf("P%02d", i),
			Name:      fmt.Sprintf("Necklace %d", i),
			Category:  "necklace",
			Price:     float64(i),
			Embedding: append([]float32(nil), vec...),
		})
	}
	cat := catalog.NewStatic(products)

	ix, err := vectorindex.New(32, 0)
	if err != nil {
		t.Fatalf("vectorindex.New() error = %v", err)
	}
	ix.Build(products)

	e, err := NewEngine(DefaultConfig(), NewSemanticRecommender(embedder, ix, cat), NewTagRecommender(cat), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	resp, err := e.Recommend(ctx, Request{Query: Query{FreeText: "birthday necklace"}, K: 4})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	want := []string{"P24", "P23", "P22", "P21"}
	if !reflect.DeepEqual(ids(resp.Results), want) {
		t.Errorf("Recommend() ids = %v, want %v", ids(resp.Results), want)
	}
	if resp.UsedFallback {
		t.Errorf("UsedFallback = true (%s), want false", resp.FallbackReason)
	}
}
