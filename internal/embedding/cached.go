// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package embedding

import (
	"context"
	"time"

	"github.com/tomtom215/giftwise/internal/cache"
	"github.com/tomtom215/giftwise/internal/metrics"
)

// CachedEmbedder memoizes another Embedder by folded text. Shoppers repeat
// the same slot combinations constantly ("birthday mother"), so query
// embeddings are served from an LRU.
type CachedEmbedder struct {
	inner Embedder
	cache *cache.LRU[[]float32]
}

// NewCachedEmbedder wraps inner with an LRU of the given size and TTL.
func NewCachedEmbedder(inner Embedder, size int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		inner: inner,
		cache: cache.NewLRU[[]float32](size, ttl),
	}
}

// Dimensions implements Embedder.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Embed implements Embedder. The returned slice is shared with the cache and
// must not be modified.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Fold(text)
	if vec, ok := c.cache.Get(key); ok {
		metrics.RecordEmbeddingCache(true)
		return vec, nil
	}
	metrics.RecordEmbeddingCache(false)

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// Stats exposes the underlying cache counters.
func (c *CachedEmbedder) Stats() cache.Stats {
	return c.cache.Stats()
}
