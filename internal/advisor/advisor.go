// Package advisor holds the report helpers around matching: automatic
// categorisation, description hints, sentiment of user messages and urgency
// triage.
package advisor

import (
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/klu-lostfound/internal/normalize"
)

// Category is a named group of item keywords
type Category struct {
	Name     string
	Keywords []string
}

// UrgencyRule assigns a base score and level to items mentioning any keyword
type UrgencyRule struct {
	Level    string
	Score    float64
	Keywords []string
}

// RecencyBonus adds Bonus to reports younger than Within hours
type RecencyBonus struct {
	WithinHours float64
	Bonus       float64
}

// Config is the vocabulary used by an Advisor
type Config struct {
	Categories      []Category
	DefaultCategory string

	Colors        []string
	Brands        []string
	BrandedItems  []string // item names for which a brand hint is given
	MinDescWords  int
	PositiveWords []string
	NegativeWords []string

	UrgencyRules    []UrgencyRule // checked in order, first hit wins
	RecencyBonuses  []RecencyBonus
	EmergencyWords  []string
	EmergencyBonus  float64
	UrgentThreshold float64
}

// DefaultConfig returns the campus vocabulary
func DefaultConfig() Config {
	return Config{
		Categories: []Category{
			{Name: "electronics", Keywords: []string{"phone", "laptop", "computer", "tablet", "camera", "headphones", "charger", "mouse", "keyboard", "speaker"}},
			{Name: "clothing", Keywords: []string{"shirt", "pants", "jacket", "shoes", "hat", "dress", "sweater", "coat", "jeans", "sneakers"}},
			{Name: "accessories", Keywords: []string{"wallet", "purse", "bag", "backpack", "watch", "jewelry", "ring", "necklace", "bracelet", "sunglasses"}},
			{Name: "documents", Keywords: []string{"passport", "license", "id", "card", "certificate", "paper", "document", "ticket", "receipt"}},
			{Name: "keys", Keywords: []string{"key", "keys", "keychain", "fob", "remote"}},
			{Name: "books", Keywords: []string{"book", "notebook", "textbook", "journal", "diary", "manual"}},
			{Name: "sports", Keywords: []string{"ball", "racket", "equipment", "gear", "helmet", "gloves"}},
		},
		DefaultCategory: "other",

		Colors:        []string{"red", "blue", "green", "yellow", "black", "white", "brown", "gray", "pink", "purple", "orange"},
		Brands:        []string{"apple", "samsung", "nike", "adidas", "sony", "hp", "dell", "canon", "nikon"},
		BrandedItems:  []string{"phone", "laptop", "camera", "watch", "bag"},
		MinDescWords:  5,
		PositiveWords: []string{"thank", "grateful", "happy", "amazing", "wonderful", "great", "excellent", "fantastic", "awesome", "love", "appreciate", "helpful", "kind", "generous"},
		NegativeWords: []string{"sad", "upset", "angry", "frustrated", "disappointed", "terrible", "awful", "bad", "horrible", "hate", "annoyed"},

		UrgencyRules: []UrgencyRule{
			{Level: LevelCritical, Score: 95, Keywords: []string{"passport", "id", "license", "medication", "medicine", "insulin", "keys", "car key", "house key"}},
			{Level: LevelHigh, Score: 80, Keywords: []string{"phone", "mobile", "wallet", "purse", "laptop", "computer"}},
			{Level: LevelMedium, Score: 60, Keywords: []string{"bag", "backpack", "watch", "jewelry", "camera"}},
		},
		RecencyBonuses: []RecencyBonus{
			{WithinHours: 2, Bonus: 15},
			{WithinHours: 6, Bonus: 10},
			{WithinHours: 24, Bonus: 5},
		},
		EmergencyWords:  []string{"urgent", "emergency", "important", "asap", "help", "please"},
		EmergencyBonus:  20,
		UrgentThreshold: 60,
	}
}

// Advisor applies the vocabulary in Config to reports and messages
type Advisor struct {
	cfg   Config
	clock clockwork.Clock
}

// New creates an advisor; a nil clock uses the real one
func New(cfg Config, clock clockwork.Clock) *Advisor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Advisor{cfg: cfg, clock: clock}
}

// Categorize returns the first category whose keywords appear in the item
// name or description
func (a *Advisor) Categorize(itemName, description string) string {
	text := newTermText(itemName + " " + description)
	for _, c := range a.cfg.Categories {
		if text.hasAny(c.Keywords) {
			return c.Name
		}
	}
	return a.cfg.DefaultCategory
}

// Suggestion is a hint for making a report easier to match
type Suggestion struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Suggestions returns hints for details missing from a report
func (a *Advisor) Suggestions(itemName, description string) []Suggestion {
	desc := strings.ToLower(description)
	item := strings.ToLower(itemName)
	out := []Suggestion{}

	if !normalize.ContainsAny(desc, a.cfg.Colors) {
		out = append(out, Suggestion{Kind: "color", Message: "Consider adding the color of your item for better identification"})
	}
	if !normalize.ContainsAny(desc, a.cfg.Brands) && normalize.ContainsAny(item, a.cfg.BrandedItems) {
		out = append(out, Suggestion{Kind: "brand", Message: "Adding the brand name can help identify your item faster"})
	}
	if len(strings.Fields(description)) < a.cfg.MinDescWords {
		out = append(out, Suggestion{Kind: "detail", Message: "A more detailed description increases your chances of recovery"})
	}
	return out
}

// Sentiment classifies a message as positive, negative or neutral by
// counting words containing positive or negative terms
func (a *Advisor) Sentiment(text string) string {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if normalize.ContainsAny(word, a.cfg.PositiveWords) {
			pos++
		}
		if normalize.ContainsAny(word, a.cfg.NegativeWords) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// termText answers keyword questions about one text. Terms of up to three
// letters must appear as whole words (optionally plural); longer terms may
// appear anywhere.
type termText struct {
	lower  string
	tokens map[string]bool
}

func newTermText(s string) termText {
	lower := strings.ToLower(s)
	tokens := make(map[string]bool)
	for _, tok := range normalize.WordTokens(lower) {
		tokens[tok] = true
	}
	return termText{lower: lower, tokens: tokens}
}

func (t termText) has(term string) bool {
	if len(term) <= 3 && !strings.Contains(term, " ") {
		return t.tokens[term] || t.tokens[term+"s"]
	}
	return strings.Contains(t.lower, term)
}

func (t termText) hasAny(terms []string) bool {
	for _, term := range terms {
		if t.has(term) {
			return true
		}
	}
	return false
}
