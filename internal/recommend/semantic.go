// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/embedding"
	"github.com/tomtom215/giftwise/internal/vectorindex"
)

// ErrNoQueryText is returned by SemanticRecommender when the query has no
// occasion, recipient or free text to embed.
var ErrNoQueryText = errors.New("recommend: query has no text to embed")

// Searcher is the vector index capability the semantic path needs.
type Searcher interface {
	Search(ctx context.Context, query []float32, m int) ([]vectorindex.Hit, error)
}

// SemanticRecommender ranks products by embedding similarity.
type SemanticRecommender struct {
	embedder embedding.Embedder
	index    Searcher
	catalog  catalog.Catalog
}

// NewSemanticRecommender wires the semantic path.
func NewSemanticRecommender(e embedding.Embedder, index Searcher, c catalog.Catalog) *SemanticRecommender {
	return &SemanticRecommender{embedder: e, index: index, catalog: c}
}

// Name implements Recommender.
func (s *SemanticRecommender) Name() string {
	return string(SourceSemantic)
}

// Recommend implements Recommender. limit is the candidate cap M passed to
// the index; hard constraints are applied to the ranked candidates, so the
// result may be shorter than limit.
func (s *SemanticRecommender) Recommend(ctx context.Context, q Query, limit int) ([]Result, error) {
	text := q.Text()
	if text == "" {
		return nil, ErrNoQueryText
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embedding.ErrEmptyText) {
			return nil, ErrNoQueryText
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		p, err := s.catalog.Get(ctx, hit.ProductID)
		if err != nil {
			// Index is older than the catalog; skip the stale id.
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("catalog lookup %s: %w", hit.ProductID, err)
		}
		if !q.Admits(p) {
			continue
		}
		sim := hit.Similarity
		results = append(results, Result{
			Product:    *p,
			Score:      sim,
			Similarity: &sim,
			Source:     SourceSemantic,
		})
	}

	sortSemantic(results)
	return results, nil
}

func sortSemantic(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return tiebreak(&a.Product, &b.Product)
	})
}

// tiebreak orders equal-scored products by descending price, then id.
func tiebreak(a, b *catalog.Product) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.ID < b.ID
}
