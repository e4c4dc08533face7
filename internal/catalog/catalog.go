// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package catalog holds the product catalog consumed by the recommender.
//
// The recommender depends only on the Catalog interface. FileCatalog loads
// a JSON array of products, embeds any product without a precomputed vector
// and publishes an immutable snapshot; Reload swaps in a new snapshot and
// reports whether the content changed so the vector index can be rebuilt.
package catalog

import (
	"context"
	"errors"
	"slices"
)

// ErrProductNotFound is returned by Get for an unknown product id.
var ErrProductNotFound = errors.New("catalog: product not found")

// Catalog is the read side of the product catalog.
type Catalog interface {
	// ListAll returns every product. The slice is owned by the caller; the
	// products themselves are shared and must not be modified.
	ListAll(ctx context.Context) ([]Product, error)

	// Get returns a single product or ErrProductNotFound.
	Get(ctx context.Context, id string) (*Product, error)
}

// snapshot is an immutable view of the catalog.
type snapshot struct {
	products []Product
	byID     map[string]int
	hash     string
}

func newSnapshot(products []Product, hash string) *snapshot {
	s := &snapshot{
		products: products,
		byID:     make(map[string]int, len(products)),
		hash:     hash,
	}
	for i := range products {
		s.byID[products[i].ID] = i
	}
	return s
}

func (s *snapshot) list() []Product {
	return slices.Clone(s.products)
}

func (s *snapshot) get(id string) (*Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// Static is a fixed in-memory catalog.
type Static struct {
	snap *snapshot
}

// NewStatic builds a catalog from products. Later duplicates of an id are
// ignored.
func NewStatic(products []Product) *Static {
	deduped := make([]Product, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		deduped = append(deduped, p)
	}
	return &Static{snap: newSnapshot(deduped, "")}
}

// ListAll implements Catalog.
func (s *Static) ListAll(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snap.list(), nil
}

// Get implements Catalog.
func (s *Static) Get(ctx context.Context, id string) (*Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snap.get(id)
}
