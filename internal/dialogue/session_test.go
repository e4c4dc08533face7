// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to State
		want     bool
	}{
		{AwaitingName, AwaitingIntent, true},
		{AwaitingIntent, AwaitingOccasion, true},
		{AwaitingIntent, Ready, true},
		{AwaitingOccasion, AwaitingRecipient, true},
		{AwaitingRecipient, Ready, true},
		{Ready, Ready, true},

		{AwaitingName, Ready, false},
		{AwaitingName, AwaitingOccasion, false},
		{AwaitingOccasion, Ready, false},
		{AwaitingRecipient, AwaitingOccasion, false},
		{Ready, AwaitingName, false},
		{Ready, AwaitingIntent, false},
		{State("BOGUS"), AwaitingIntent, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			t.Parallel()
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   State
		wantOK bool
	}{
		{"AWAITING_NAME", AwaitingName, true},
		{"awaiting_intent", AwaitingIntent, true},
		{" READY_FOR_RECOMMENDATION ", Ready, true},
		{"AWAITING_RECIPIENT", AwaitingRecipient, true},
		{"GREETING", AwaitingName, false},
		{"", AwaitingName, false},
	}

	for _, tt := range tests {
		got, ok := ParseState(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseState(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}

	for _, s := range States {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
}

func TestSession_AppendTurnBoundsHistory(t *testing.T) {
	t.Parallel()

	s := NewSession("h", time.Now())
	for i := 0; i < 7; i++ {
		s.AppendTurn(Turn{UserMessage: fmt.Sprintf("m%d", i)}, 3)
	}
	if len(s.History) != 3 {
		t.Fatalf("history = %d, want 3", len(s.History))
	}
	if s.History[0].UserMessage != "m4" || s.History[2].UserMessage != "m6" {
		t.Errorf("history kept %q..%q, want m4..m6", s.History[0].UserMessage, s.History[2].UserMessage)
	}
}

func TestSession_ResetKeepsHistory(t *testing.T) {
	t.Parallel()

	ceiling := 500.0
	s := NewSession("r", time.Now())
	s.State = Ready
	s.Slots = Slots{Name: "Alex", Intent: "special", Occasion: "birthday", Recipient: "friend"}
	s.Filters = Filters{Category: "ring", PriceCeiling: &ceiling, FreeText: "gold"}
	s.ShownIDs = []string{"A", "B"}
	s.AppendTurn(Turn{UserMessage: "hi"}, 0)

	s.Reset()

	if s.State != InitialState || s.Slots != (Slots{}) || s.Filters.PriceCeiling != nil || s.ShownIDs != nil {
		t.Errorf("Reset left data behind: %+v", s)
	}
	if len(s.History) != 1 {
		t.Errorf("history = %d, want 1", len(s.History))
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	t.Parallel()

	ceiling := 250.0
	s := NewSession("c", time.Now())
	s.Filters.PriceCeiling = &ceiling
	s.ShownIDs = []string{"A"}
	s.AppendTurn(Turn{UserMessage: "x"}, 0)

	c := s.Clone()
	*c.Filters.PriceCeiling = 1
	c.ShownIDs[0] = "Z"
	c.History[0].UserMessage = "y"

	if *s.Filters.PriceCeiling != 250 || s.ShownIDs[0] != "A" || s.History[0].UserMessage != "x" {
		t.Errorf("clone shares memory with original: %+v", s)
	}
}

func TestKeyedLocks(t *testing.T) {
	t.Parallel()

	locks := newKeyedLocks()
	unlockA, err := locks.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock(a): %v", err)
	}

	unlockB, err := locks.Lock(context.Background(), "b")
	if err != nil {
		t.Fatalf("Lock(b) should not wait for a: %v", err)
	}
	unlockB()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := locks.Lock(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Lock on held key with cancelled ctx = %v, want context.Canceled", err)
	}

	acquired := make(chan struct{})
	go func() {
		unlock, err := locks.Lock(context.Background(), "a")
		if err != nil {
			t.Errorf("Lock(a) after release: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock(a) acquired while held")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-acquired

	deadline := time.Now().Add(time.Second)
	for locks.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := locks.Len(); n != 0 {
		t.Errorf("Len = %d after all releases, want 0", n)
	}
}
