// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package embedding

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Fiancée", "fiancee"},
		{"  Rose   GOLD ", "rose gold"},
		{"Crème brûlée", "creme brulee"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"Gold Earrings for my Mother", []string{"gold", "earring", "mother"}},
		{"diamond necklaces, under $500", []string{"diamond", "necklace", "under", "500"}},
		{"accessories", []string{"accessory"}},
		{"glass", []string{"glass"}},
		{"Mother's Day", []string{"mother", "day"}},
		{"the a an", []string{}},
	}
	for _, tt := range tests {
		got := Tokens(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokens(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHashingEmbedder_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewHashingEmbedder(64)
	a, err := e.Embed(context.Background(), "rose gold diamond ring")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := e.Embed(context.Background(), "rose gold diamond ring")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Embed() is not deterministic")
	}
	if len(a) != 64 || e.Dimensions() != 64 {
		t.Errorf("len = %d, Dimensions() = %d, want 64", len(a), e.Dimensions())
	}

	var norm float64
	for _, x := range a {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestHashingEmbedder_RelatedTextIsCloser(t *testing.T) {
	t.Parallel()

	e := NewHashingEmbedder(256)
	ctx := context.Background()
	query, _ := e.Embed(ctx, "diamond engagement ring")
	near, _ := e.Embed(ctx, "Product: Solitaire. Description: classic diamond ring for an engagement. Tags: engagement ring")
	far, _ := e.Embed(ctx, "Product: Pearl Studs. Description: freshwater pearl earrings. Tags: everyday")

	simNear, err := Cosine(query, near)
	if err != nil {
		t.Fatal(err)
	}
	simFar, err := Cosine(query, far)
	if err != nil {
		t.Fatal(err)
	}
	if simNear <= simFar {
		t.Errorf("similarity(near) = %v, similarity(far) = %v, want near > far", simNear, simFar)
	}
}

func TestHashingEmbedder_EmptyText(t *testing.T) {
	t.Parallel()

	e := NewHashingEmbedder(32)
	for _, text := range []string{"", "   ", "the and of", "!!!"} {
		if _, err := e.Embed(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Embed(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestHashingEmbedder_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashingEmbedder(32).Embed(ctx, "ring"); !errors.Is(err, context.Canceled) {
		t.Errorf("Embed() error = %v, want context.Canceled", err)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr error
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1, nil},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, nil},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, nil},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0, nil},
		{"mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0, ErrDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Cosine(tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Cosine() error = %v, want %v", err, tt.wantErr)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

type countingEmbedder struct {
	calls atomic.Int32
	inner Embedder
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func TestCachedEmbedder(t *testing.T) {
	t.Parallel()

	inner := &countingEmbedder{inner: NewHashingEmbedder(32)}
	c := NewCachedEmbedder(inner, 8, time.Minute)
	ctx := context.Background()

	first, err := c.Embed(ctx, "Birthday Mother")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := c.Embed(ctx, "  birthday   mother ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("cached vector differs from first result")
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("inner calls = %d, want 1", got)
	}
	if c.Dimensions() != 32 {
		t.Errorf("Dimensions() = %d, want 32", c.Dimensions())
	}

	if _, err := c.Embed(ctx, ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Embed(\"\") error = %v, want ErrEmptyText", err)
	}
	if stats := c.Stats(); stats.Hits != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and size 1", stats)
	}
}
