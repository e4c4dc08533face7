// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package embedding turns product descriptions and shopper queries into
// fixed-dimension vectors for the vector search index.
//
// Every Embedder reports its dimensionality; the index and the catalog refuse
// to mix vectors of different sizes.
package embedding

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrEmptyText is returned when the text has no indexable tokens.
	ErrEmptyText = errors.New("embedding: text has no indexable tokens")

	// ErrDimensionMismatch is returned when two vectors of different sizes meet.
	ErrDimensionMismatch = errors.New("embedding: dimension mismatch")
)

// Embedder produces a vector for a piece of text.
type Embedder interface {
	// Embed returns a vector of length Dimensions(). Implementations should
	// return ErrEmptyText rather than a zero vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions is the fixed length of every vector returned by Embed.
	Dimensions() int
}

// Normalize scales v to unit length in place. A zero vector is left alone
// and reported as false.
func Normalize(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return false
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length yield ErrDimensionMismatch; a zero vector has similarity 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
