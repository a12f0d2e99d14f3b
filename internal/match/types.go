package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/klu-lostfound/internal/imagesim"
)

var validate = validator.New()

// ReportType distinguishes lost reports from found reports
type ReportType string

const (
	Lost  ReportType = "lost"
	Found ReportType = "found"
)

// Opposite returns the report type a report of type t is matched against
func (t ReportType) Opposite() ReportType {
	if t == Lost {
		return Found
	}
	return Lost
}

// Report is a user-submitted lost or found item, read-only to the engine
type Report struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	ItemName    string     `json:"item_name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	ImageRef    string     `json:"image_filename,omitempty"`
	Type        ReportType `json:"type"`
	Status      string     `json:"status,omitempty"` // active | resolved | expired
	ReportedAt  time.Time  `json:"date_reported"`
}

// HasImageRef reports whether the report names an image at all
func (r Report) HasImageRef() bool {
	return strings.TrimSpace(r.ImageRef) != ""
}

// Active reports whether the report is still open; an empty status counts as active
func (r Report) Active() bool {
	return r.Status == "" || r.Status == "active"
}

// MatchText is the item name followed by the description
func (r Report) MatchText() string {
	return r.ItemName + " " + r.Description
}

// SameReporter reports whether both reports were filed by the same email
func SameReporter(a, b Report) bool {
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(b.Email))
}

// Signal names the measure that decided a pair's percentage
type Signal string

const (
	SignalImage          Signal = "image"
	SignalIdentification Signal = "identification"
	SignalText           Signal = "text"
	SignalComposite      Signal = "composite"
)

// Breakdown holds every sub-score computed for a pair, as percentages
type Breakdown struct {
	Image          float64         `json:"image"`
	ImageMethod    imagesim.Method `json:"image_method,omitempty"`
	Identification float64         `json:"identification"`
	Text           float64         `json:"text"`
	Name           float64         `json:"name,omitempty"`
	Description    float64         `json:"description,omitempty"`
	Location       float64         `json:"location"`
}

// Result is one candidate pairing of a lost and a found report
type Result struct {
	LostID        int64     `json:"lost_id"`
	FoundID       int64     `json:"found_id"`
	Percentage    float64   `json:"percentage"`
	Tier          string    `json:"tier"`
	Signal        Signal    `json:"signal"`
	Breakdown     Breakdown `json:"breakdown"`
	LocationGroup string    `json:"location_group,omitempty"`
	LocationMatch bool      `json:"location_match"`
}

// Label renders the result the way match lists show it, e.g. "High - 84.2%"
func (r Result) Label() string {
	return fmt.Sprintf("%s - %.1f%%", r.Tier, r.Percentage)
}

// Tier is a labelled band; a percentage belongs to the first tier whose Min it reaches
type Tier struct {
	Min   float64 `json:"min" validate:"gte=0,lte=100"`
	Label string  `json:"label" validate:"required"`
}

// Tiers must be ordered by strictly decreasing Min
type Tiers []Tier

// DefaultTiers returns the standard High/Medium/Low bands
func DefaultTiers() Tiers {
	return Tiers{
		{Min: 80, Label: "High"},
		{Min: 60, Label: "Medium"},
		{Min: 0, Label: "Low"},
	}
}

// Classify returns the label of the band containing pct, or "" if none does
func (t Tiers) Classify(pct float64) string {
	for _, tier := range t {
		if pct >= tier.Min {
			return tier.Label
		}
	}
	return ""
}

// Validate checks every tier and that the bands are strictly decreasing
func (t Tiers) Validate() error {
	if len(t) == 0 {
		return errors.New("at least one tier is required")
	}
	for i, tier := range t {
		if err := validate.Struct(tier); err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
		if i > 0 && tier.Min >= t[i-1].Min {
			return fmt.Errorf("tier %q (min %.1f) must be below tier %q (min %.1f)",
				tier.Label, tier.Min, t[i-1].Label, t[i-1].Min)
		}
	}
	return nil
}

// Options configures one matching run
type Options struct {
	InclusionThreshold float64 `validate:"gte=0,lte=100"`
	MaxComparisons     int     `validate:"gte=0"` // 0 means no cap
	Tiers              Tiers
	Workers            int `validate:"gte=0"` // 0 means one per CPU
	Debug              bool
}

// DefaultMaxComparisons bounds the pairs examined in one run
const DefaultMaxComparisons = 10000

// DefaultOptions returns the settings of the general matcher
func DefaultOptions() Options {
	return Options{
		InclusionThreshold: 30,
		MaxComparisons:     DefaultMaxComparisons,
		Tiers:              DefaultTiers(),
	}
}

// ExploratoryOptions returns looser settings that surface weak candidates too
func ExploratoryOptions() Options {
	opts := DefaultOptions()
	opts.InclusionThreshold = 10
	return opts
}

// Validate checks the options
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid match options: %w", err)
	}
	return o.Tiers.Validate()
}
