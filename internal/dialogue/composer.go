// Giftwise - Conversational Gift Recommendation Assistant
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/giftwise

package dialogue

import (
	"fmt"
	"strings"

	"github.com/tomtom215/giftwise/internal/catalog"
	"github.com/tomtom215/giftwise/internal/recommend"
)

// Button values understood by the machine.
const (
	ValueSpecial       = "special"
	ValueBrowsing      = "browsing"
	ValueShowMore      = "show_more"
	ValueAdjustFilters = "adjust_filters"
	ValueBrowseAll     = "browse_all"
	ValueStartOver     = "start_over"
	ValueRequestStaff  = "request_staff"
	ItemDetailsPrefix  = "item_details:"
	HandshakeMessage   = "hi_ai_assistant"
)

// Button is an action shortcut offered with a reply.
type Button struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

var (
	intentButtons = []Button{
		{Label: "Something special", Value: ValueSpecial},
		{Label: "Just browsing", Value: ValueBrowsing},
	}
	occasionButtons = []Button{
		{Label: "Birthday", Value: "birthday"},
		{Label: "Anniversary", Value: "anniversary"},
		{Label: "Engagement", Value: "engagement"},
		{Label: "Wedding", Value: "wedding"},
		{Label: "Graduation", Value: "graduation"},
	}
	recipientButtons = []Button{
		{Label: "Partner", Value: "partner"},
		{Label: "Mother", Value: "mother"},
		{Label: "Father", Value: "father"},
		{Label: "Friend", Value: "friend"},
		{Label: "Myself", Value: "myself"},
	}
	resultButtons = []Button{
		{Label: "Show more", Value: ValueShowMore},
		{Label: "Adjust filters", Value: ValueAdjustFilters},
		{Label: "Start over", Value: ValueStartOver},
	}
	emptyButtons = []Button{
		{Label: "Browse all", Value: ValueBrowseAll},
		{Label: "Start over", Value: ValueStartOver},
	}
)

// Buttons returns the action buttons for a state and result count. It is a
// pure function of its arguments and always returns a fresh, non-nil slice.
func Buttons(state State, resultCount int) []Button {
	var set []Button
	switch state {
	case AwaitingIntent:
		set = intentButtons
	case AwaitingOccasion:
		set = occasionButtons
	case AwaitingRecipient:
		set = recipientButtons
	case Ready:
		if resultCount > 0 {
			set = resultButtons
		} else {
			set = emptyButtons
		}
	}
	return append([]Button{}, set...)
}

// ProductCard is the client view of a recommended product.
type ProductCard struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Price           float64  `json:"price"`
	Metal           string   `json:"metal,omitempty"`
	Gemstones       []string `json:"gemstones"`
	StyleTags       []string `json:"style_tags"`
	ImageURL        string   `json:"image_url,omitempty"`
	SimilarityScore *float64 `json:"similarity_score"`
	Confidence      string   `json:"confidence,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// TurnRequest is one user message.
type TurnRequest struct {
	SessionID *string `json:"session_id"`
	Message   string  `json:"message"`
}

// TurnResponse is the reply to a TurnRequest.
type TurnResponse struct {
	SessionID       string        `json:"session_id"`
	Reply           string        `json:"reply"`
	Products        []ProductCard `json:"products"`
	CurrentState    State         `json:"current_state"`
	ActionButtons   []Button      `json:"action_buttons"`
	EndConversation bool          `json:"end_conversation"`
	ConfidenceScore *string       `json:"confidence_score"`
}

// Composer renders replies and cards.
type Composer struct{}

// Prompt is the question asked on entering a state.
func (Composer) Prompt(state State, s *Session) string {
	switch state {
	case AwaitingName:
		return "Hi! I'm your gift assistant. What's your name?"
	case AwaitingIntent:
		return fmt.Sprintf("Nice to meet you, %s! Are you shopping for something special, or just browsing?", nameOr(s, "there"))
	case AwaitingOccasion:
		return "Lovely! What's the occasion?"
	case AwaitingRecipient:
		return "And who is the gift for?"
	default:
		return "Tell me what you have in mind, for example \"gold necklace under $300\"."
	}
}

// Clarify asks again after an answer could not be understood.
func (Composer) Clarify(state State, s *Session) string {
	switch state {
	case AwaitingName:
		return "Sorry, I didn't catch your name. What should I call you?"
	case AwaitingIntent:
		return fmt.Sprintf("%s, is this for a special occasion, or are you just browsing?", nameOr(s, "So"))
	case AwaitingOccasion:
		return "What's the occasion? For example a birthday or an anniversary."
	case AwaitingRecipient:
		return "Who are you shopping for? For example your partner, a friend, or yourself."
	default:
		return "Tell me more about what you're looking for, like a category, a style or a budget."
	}
}

// Results introduces a page of recommendations.
func (Composer) Results(s *Session, resp *recommend.Response, more bool) string {
	var b strings.Builder
	switch {
	case more:
		b.WriteString("Here are a few more")
	case s.Filters.BrowseAll:
		b.WriteString("Here's a selection from our whole collection")
	case s.Slots.Occasion != "" && s.Slots.Recipient != "":
		fmt.Fprintf(&b, "Here are some %s ideas for %s", s.Slots.Occasion, recipientPhrase(s.Slots.Recipient))
	case s.Slots.Occasion != "":
		fmt.Fprintf(&b, "Here are some %s ideas", s.Slots.Occasion)
	default:
		b.WriteString("Here are a few pieces you might like")
	}
	if s.Slots.Name != "" && !more {
		fmt.Fprintf(&b, ", %s", s.Slots.Name)
	}
	b.WriteString(".")
	if resp.TopConfidence() == recommend.ConfidenceLow {
		b.WriteString(" These are my closest matches; tell me more and I'll narrow it down.")
	}
	return b.String()
}

// NoResults explains an empty page.
func (Composer) NoResults(more bool) string {
	if more {
		return "That's everything I have for this search. Want to browse everything or start over?"
	}
	return "I couldn't find anything matching that. Want to browse everything or start over?"
}

// AdjustFilters prompts for new refinements.
func (Composer) AdjustFilters() string {
	return "Sure. Tell me a category like rings or necklaces, a budget like \"under $300\", or a style you like."
}

// Staff is the handoff reply.
func (Composer) Staff(s *Session) string {
	if s != nil && s.Slots.Name != "" {
		return fmt.Sprintf("Of course, %s. I'll connect you with a member of our team; they'll be with you shortly.", s.Slots.Name)
	}
	return "Of course. I'll connect you with a member of our team; they'll be with you shortly."
}

// ItemDetails describes one product.
func (Composer) ItemDetails(p *catalog.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, $%.2f.", p.Name, p.Price)
	if p.Metal != "" {
		fmt.Fprintf(&b, " Metal: %s.", p.Metal)
	}
	if len(p.Gemstones) > 0 {
		fmt.Fprintf(&b, " Stones: %s.", strings.Join(p.Gemstones, ", "))
	}
	if p.Description != "" {
		b.WriteString(" ")
		b.WriteString(p.Description)
	}
	return b.String()
}

// ItemNotFound replies to a details request for an unknown product.
func (Composer) ItemNotFound() string {
	return "Sorry, I couldn't find that item. It may no longer be available."
}

// Cards converts results into product cards.
func (Composer) Cards(results []recommend.Result) []ProductCard {
	cards := make([]ProductCard, 0, len(results))
	for i := range results {
		r := &results[i]
		card := productCard(&r.Product)
		if r.Similarity != nil {
			v := *r.Similarity
			card.SimilarityScore = &v
		}
		card.Confidence = string(r.Confidence)
		card.Source = string(r.Source)
		cards = append(cards, card)
	}
	return cards
}

func productCard(p *catalog.Product) ProductCard {
	return ProductCard{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Metal:     p.Metal,
		Gemstones: append([]string{}, p.Gemstones...),
		StyleTags: append([]string{}, p.StyleTags...),
		ImageURL:  p.ImageURL,
	}
}

func nameOr(s *Session, fallback string) string {
	if s != nil && s.Slots.Name != "" {
		return s.Slots.Name
	}
	return fallback
}

func recipientPhrase(r string) string {
	switch r {
	case "myself":
		return "yourself"
	case "partner", "mother", "father", "friend", "wife", "husband", "girlfriend", "boyfriend",
		"sister", "brother", "daughter", "son", "grandmother", "grandfather", "colleague", "fiancee", "fiance":
		return "your " + r
	default:
		return r
	}
}
