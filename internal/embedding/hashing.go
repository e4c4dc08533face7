// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package embedding

import (
	"context"
	"hash/fnv"
)

const (
	unigramWeight = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.3
)

// HashingEmbedder is a deterministic feature-hashing embedder. Word unigrams,
// adjacent word bigrams and character trigrams are hashed into a fixed number
// of signed buckets and the result is L2-normalized.
//
// It needs no model download and produces identical vectors across
// processes, which keeps index rebuilds and tests reproducible.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates an embedder producing vectors of length dims.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashingEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (e *HashingEmbedder) Dimensions() int {
	return e.dims
}

// Embed implements Embedder.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokens(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float32, e.dims)
	for i, tok := range tokens {
		e.add(vec, "w:"+tok, unigramWeight)
		if i > 0 {
			e.add(vec, "b:"+tokens[i-1]+"_"+tok, bigramWeight)
		}
		padded := "#" + tok + "#"
		runes := []rune(padded)
		for j := 0; j+3 <= len(runes); j++ {
			e.add(vec, "c:"+string(runes[j:j+3]), trigramWeight)
		}
	}

	if !Normalize(vec) {
		return nil, ErrEmptyText
	}
	return vec, nil
}

func (e *HashingEmbedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(e.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
