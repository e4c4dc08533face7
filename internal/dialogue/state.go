// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import "strings"

// State is the position of a session in the slot-filling dialogue.
type State string

const (
	AwaitingName      State = "AWAITING_NAME"
	AwaitingIntent    State = "AWAITING_INTENT"
	AwaitingOccasion  State = "AWAITING_OCCASION"
	AwaitingRecipient State = "AWAITING_RECIPIENT"
	Ready             State = "READY_FOR_RECOMMENDATION"
)

// InitialState is the state of every new or reset session.
const InitialState = AwaitingName

// States lists every state in dialogue order.
var States = []State{AwaitingName, AwaitingIntent, AwaitingOccasion, AwaitingRecipient, Ready}

// transitions is the forward transition table. Reset to InitialState is
// handled separately and is the only backward move.
var transitions = map[State][]State{
	AwaitingName:      {AwaitingIntent},
	AwaitingIntent:    {AwaitingOccasion, Ready},
	AwaitingOccasion:  {AwaitingRecipient},
	AwaitingRecipient: {Ready},
	Ready:             {Ready},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// CanTransition reports whether the dialogue may move from one state to
// another without a reset.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseState converts a persisted value into a State. Unknown values map to
// InitialState and ok is false.
func ParseState(s string) (state State, ok bool) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if st.Valid() {
		return st, true
	}
	return InitialState, false
}
