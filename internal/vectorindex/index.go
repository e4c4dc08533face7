// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

// Package vectorindex is an in-memory cosine-similarity index over product
// embeddings.
//
// The index is rebuilt as a whole and published through an atomic pointer.
// Searches load the pointer once and work on that snapshot, so a rebuild
// never blocks or disturbs a query in flight.
package vectorindex

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/logging"
	"github.com/tomtom215/giftwise/internal/metrics"
)

var (
	// ErrNotBuilt is returned by Search before the first Build.
	ErrNotBuilt = errors.New("vectorindex: index not built")

	// ErrDimensionMismatch is returned when the query length differs from
	// the index dimensionality.
	ErrDimensionMismatch = errors.New("vectorindex: query dimension mismatch")

	// ErrEmptyQuery is returned for an empty or zero query vector.
	ErrEmptyQuery = errors.New("vectorindex: empty query vector")
)

// ctxCheckEvery bounds how many vectors are scored between cancellation checks.
const ctxCheckEvery = 512

// Hit is one search result.
type Hit struct {
	ProductID  string  `json:"product_id"`
	Similarity float64 `json:"similarity"`
	Price      float64 `json:"price"`
}

// Stats describes the published snapshot.
type Stats struct {
	Size       int       `json:"size"`
	Skipped    int       `json:"skipped"`
	Dimensions int       `json:"dimensions"`
	Floor      float64   `json:"similarity_floor"`
	Version    uint64    `json:"version"`
	BuiltAt    time.Time `json:"built_at"`
	Built      bool      `json:"built"`
}

type entry struct {
	id     string
	price  float64
	vector []float32
}

type snapshot struct {
	entries []entry
	skipped int
	version uint64
	builtAt time.Time
}

// Index is safe for concurrent Search and Build.
type Index struct {
	dims    int
	floor   float64
	logger  zerolog.Logger
	snap    atomic.Pointer[snapshot]
	version atomic.Uint64
}

// New creates an empty index for vectors of length dims. Hits with
// similarity below floor are never returned.
func New(dims int, floor float64) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vectorindex: dimensions must be positive, got %d", dims)
	}
	if floor < -1 || floor > 1 {
		return nil, fmt.Errorf("vectorindex: similarity floor %v outside [-1, 1]", floor)
	}
	return &Index{
		dims:   dims,
		floor:  floor,
		logger: logging.WithComponent("vectorindex"),
	}, nil
}

// Dimensions returns the vector length the index accepts.
func (ix *Index) Dimensions() int {
	return ix.dims
}

// Build indexes the products' embeddings and atomically replaces the
// current snapshot. Products with a missing, zero or wrong-sized embedding
// are skipped and counted.
func (ix *Index) Build(products []catalog.Product) Stats {
	start := time.Now()

	entries := make([]entry, 0, len(products))
	skipped := 0
	for i := range products {
		p := &products[i]
		if len(p.Embedding) != ix.dims {
			skipped++
			ix.logger.Debug().
				Str("product_id", p.ID).
				Int("dimensions", len(p.Embedding)).
				Int("expected", ix.dims).
				Msg("Skipping product with mismatched embedding")
			continue
		}
		vec, ok := normalized(p.Embedding)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry{id: p.ID, price: p.Price, vector: vec})
	}

	snap := &snapshot{
		entries: entries,
		skipped: skipped,
		version: ix.version.Add(1),
		builtAt: time.Now(),
	}
	ix.snap.Store(snap)

	metrics.RecordIndexRebuild(len(entries), time.Since(start), nil)
	if skipped > 0 {
		metrics.RecordIndexSkipped(skipped)
		ix.logger.Warn().Int("skipped", skipped).Msg("Products excluded from vector index")
	}
	ix.logger.Info().
		Int("size", len(entries)).
		Uint64("version", snap.version).
		Dur("duration", time.Since(start)).
		Msg("Vector index built")

	return ix.statsOf(snap)
}

// Search returns up to m hits ordered by similarity descending, ties broken
// by price descending and then product id ascending. The same order decides
// which tied hits survive the cut at m.
func (ix *Index) Search(ctx context.Context, query []float32, m int) ([]Hit, error) {
	snap := ix.snap.Load()
	if snap == nil {
		return nil, ErrNotBuilt
	}
	if len(query) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(query), ix.dims)
	}
	q, ok := normalized(query)
	if !ok {
		return nil, ErrEmptyQuery
	}
	if m <= 0 {
		return []Hit{}, nil
	}

	top := make(hitHeap, 0, m)
	for i := range snap.entries {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		e := &snap.entries[i]
		sim := dot(q, e.vector)
		if sim < ix.floor {
			continue
		}
		h := Hit{ProductID: e.id, Similarity: sim, Price: e.price}
		if len(top) < m {
			heap.Push(&top, h)
		} else if better(h, top[0]) {
			top[0] = h
			heap.Fix(&top, 0)
		}
	}

	hits := make([]Hit, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&top).(Hit)
	}
	return hits, nil
}

// Stats describes the current snapshot.
func (ix *Index) Stats() Stats {
	return ix.statsOf(ix.snap.Load())
}

func (ix *Index) statsOf(snap *snapshot) Stats {
	st := Stats{Dimensions: ix.dims, Floor: ix.floor}
	if snap == nil {
		return st
	}
	st.Built = true
	st.Size = len(snap.entries)
	st.Skipped = snap.skipped
	st.Version = snap.version
	st.BuiltAt = snap.builtAt
	return st
}

func normalized(v []float32) ([]float32, bool) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, false
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, true
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// better reports whether a ranks ahead of b.
func better(a, b Hit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.ProductID < b.ProductID
}

// hitHeap is a min-heap on rank: the root is the worst retained hit.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
