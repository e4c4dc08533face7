// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"strings"
	"testing"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/recommend"
)

func TestButtons(t *testing.T) {
	t.Parallel()

	values := func(bs []Button) string {
		out := make([]string, len(bs))
		for i, b := range bs {
			out[i] = b.Value
		}
		return strings.Join(out, ",")
	}

	tests := []struct {
		state State
		count int
		want  string
	}{
		{AwaitingName, 0, ""},
		{AwaitingIntent, 0, "special,browsing"},
		{AwaitingOccasion, 0, "birthday,anniversary,engagement,wedding,graduation"},
		{AwaitingRecipient, 0, "partner,mother,father,friend,myself"},
		{Ready, 3, "show_more,adjust_filters,start_over"},
		{Ready, 0, "browse_all,start_over"},
		{State("BOGUS"), 2, ""},
	}

	for _, tt := range tests {
		got := Buttons(tt.state, tt.count)
		if got == nil {
			t.Errorf("Buttons(%s, %d) returned nil", tt.state, tt.count)
		}
		if values(got) != tt.want {
			t.Errorf("Buttons(%s, %d) = %s, want %s", tt.state, tt.count, values(got), tt.want)
		}
	}

	// Callers may modify the result without affecting later calls.
	first := Buttons(Ready, 1)
	first[0].Label = "changed"
	if Buttons(Ready, 1)[0].Label != "Show more" {
		t.Error("Buttons returned a shared slice")
	}
}

func TestComposer_PromptsUseName(t *testing.T) {
	t.Parallel()

	var c Composer
	s := NewSession("p", fixedTime)
	s.Slots.Name = "Robin"

	if got := c.Prompt(AwaitingIntent, s); !strings.Contains(got, "Robin") {
		t.Errorf("intent prompt %q does not greet by name", got)
	}
	if got := c.Prompt(AwaitingIntent, NewSession("q", fixedTime)); strings.Contains(got, "Robin") {
		t.Errorf("intent prompt %q leaked a name", got)
	}
	if got := c.Staff(s); !strings.Contains(got, "Robin") {
		t.Errorf("staff reply %q does not use name", got)
	}
}

func TestComposer_Results(t *testing.T) {
	t.Parallel()

	var c Composer
	s := NewSession("r", fixedTime)
	s.Slots = Slots{Name: "Alex", Occasion: "birthday", Recipient: "mother"}

	high := &recommend.Response{Results: []recommend.Result{{Confidence: recommend.ConfidenceHigh}}}
	low := &recommend.Response{Results: []recommend.Result{{Confidence: recommend.ConfidenceLow}}}

	got := c.Results(s, high, false)
	if got != "Here are some birthday ideas for your mother, Alex." {
		t.Errorf("Results = %q", got)
	}
	if !strings.Contains(c.Results(s, low, false), "closest matches") {
		t.Error("low confidence should be disclosed")
	}
	if got := c.Results(s, high, true); got != "Here are a few more." {
		t.Errorf("more Results = %q", got)
	}
}

func TestComposer_Cards(t *testing.T) {
	t.Parallel()

	sim := 0.82
	results := []recommend.Result{
		{Product: catalog.Product{ID: "A", Name: "Alpha", Category: "ring", Price: 10, Gemstones: []string{"ruby"}},
			Similarity: &sim, Confidence: recommend.ConfidenceHigh, Source: recommend.SourceSemantic},
		{Product: catalog.Product{ID: "B", Name: "Beta", Category: "necklace", Price: 5},
			Confidence: recommend.ConfidenceLow, Source: recommend.SourceFallback},
	}

	cards := Composer{}.Cards(results)
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	if cards[0].SimilarityScore == nil || *cards[0].SimilarityScore != 0.82 {
		t.Errorf("semantic similarity = %v", cards[0].SimilarityScore)
	}
	if cards[1].SimilarityScore != nil {
		t.Error("fallback similarity should be nil")
	}
	if cards[1].Gemstones == nil || cards[1].StyleTags == nil {
		t.Error("list fields should encode as [] not null")
	}

	results[0].Product.Gemstones[0] = "changed"
	if cards[0].Gemstones[0] != "ruby" {
		t.Error("card shares gemstones with the product")
	}
}

func TestComposer_ItemDetails(t *testing.T) {
	t.Parallel()

	p := &catalog.Product{Name: "Pearl Pendant", Price: 420, Metal: "silver", Gemstones: []string{"pearl"}, Description: "Lovely."}
	got := Composer{}.ItemDetails(p)
	want := "Pearl Pendant, $420.00. Metal: silver. Stones: pearl. Lovely."
	if got != want {
		t.Errorf("ItemDetails = %q, want %q", got, want)
	}
}
