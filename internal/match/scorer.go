package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/klu-lostfound/internal/debug"
)

// Scorer computes the per-signal similarities of two reports. Its
// configuration is fixed at construction.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the default vocabulary and weights
func NewScorer() *Scorer {
	return NewScorerWithConfig(DefaultConfig())
}

// NewScorerWithConfig creates a scorer bound to cfg
func NewScorerWithConfig(cfg Config) *Scorer {
	return &Scorer{cfg: copyConfig(cfg)}
}

// Config returns a copy of the scorer's configuration
func (s *Scorer) Config() Config {
	return copyConfig(s.cfg)
}

func copyConfig(cfg Config) Config {
	out := cfg
	out.LocationGroups = make([]LocationGroup, len(cfg.LocationGroups))
	for i, g := range cfg.LocationGroups {
		out.LocationGroups[i] = LocationGroup{Name: g.Name, Keywords: append([]string(nil), g.Keywords...)}
	}
	out.IdentificationCategories = make([]IdentificationCategory, len(cfg.IdentificationCategories))
	for i, c := range cfg.IdentificationCategories {
		out.IdentificationCategories[i] = IdentificationCategory{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

var defaultScorer = NewScorer()

// TextSimilarity scores two texts with the default configuration
func TextSimilarity(text1, text2 string) float64 {
	return defaultScorer.TextSimilarity(text1, text2)
}

// LocationSimilarity compares two location labels with the default taxonomy
func LocationSimilarity(loc1, loc2 string) float64 {
	return defaultScorer.LocationSimilarity(loc1, loc2)
}

// ExtractIdentification extracts the identification fragment using the default marker
func ExtractIdentification(description string) (string, bool) {
	return defaultScorer.ExtractIdentification(description)
}

// IdentificationSimilarity compares identification fragments with the default categories
func IdentificationSimilarity(desc1, desc2 string) float64 {
	return defaultScorer.IdentificationSimilarity(desc1, desc2)
}

// Duplicate is an existing report that looks like a resubmission of a new one
type Duplicate struct {
	ReportID   int64   `json:"report_id"`
	Similarity float64 `json:"similarity"` // percentage
	Confidence string  `json:"confidence"`
}

// DetectDuplicates compares a new report against existing reports of the
// same kind and returns the likely duplicates, most similar first
func (s *Scorer) DetectDuplicates(localDebug bool, candidate Report, existing []Report) []Duplicate {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	dups := []Duplicate{}
	for _, other := range existing {
		if other.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if candidate.Type != "" && other.Type != "" && candidate.Type != other.Type {
			continue
		}

		overall, _, _, _ := s.CompositeScore(candidate, other)
		debug.DebugOutput(localDebug, "Report %d vs %d: composite %.4f", candidate.ID, other.ID, overall)
		if overall <= s.cfg.DuplicateThreshold {
			continue
		}

		confidence := "Medium"
		if overall > s.cfg.DuplicateHighConfidence {
			confidence = "High"
		}
		dups = append(dups, Duplicate{
			ReportID:   other.ID,
			Similarity: round2(overall * 100),
			Confidence: confidence,
		})
	}

	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].Similarity > dups[j].Similarity
	})
	return dups
}

// SortResults orders results by descending percentage, keeping the input
// order of ties
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Percentage > results[j].Percentage
	})
}

// GetExplanation returns a human-readable account of how a result was scored
func GetExplanation(r Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Lost #%d vs found #%d: %.2f%% (%s) via %s signal\n",
		r.LostID, r.FoundID, r.Percentage, r.Tier, r.Signal))

	b := r.Breakdown
	switch r.Signal {
	case SignalImage:
		sb.WriteString(fmt.Sprintf("  Image similarity: %.2f%% (%s)\n", b.Image, b.ImageMethod))
	case SignalIdentification:
		sb.WriteString(fmt.Sprintf("  Identification similarity: %.2f%%\n", b.Identification))
	case SignalComposite:
		sb.WriteString(fmt.Sprintf("  Item name: %.2f%%, description: %.2f%%\n", b.Name, b.Description))
	}
	sb.WriteString(fmt.Sprintf("  Text baseline: %.2f%%\n", b.Text))
	sb.WriteString(fmt.Sprintf("  Location: %.2f%%", b.Location))
	if r.LocationGroup != "" {
		sb.WriteString(fmt.Sprintf(" (both in %s)", r.LocationGroup))
	}
	sb.WriteString("\n")

	return sb.String()
}
