package match

import (
	"math"
	"strings"

	"github.com/klu-lostfound/internal/normalize"
)

// TextSimilarity scores two free texts on a 0-100 scale by blending the
// sequence ratio of their cleaned forms with the Jaccard overlap of their words
func (s *Scorer) TextSimilarity(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}
	if text1 == text2 {
		return 100.0
	}

	clean1 := normalize.CleanText(text1)
	clean2 := normalize.CleanText(text2)

	seq := normalize.SequenceRatio(clean1, clean2)
	jaccard := normalize.Jaccard(normalize.Tokenize(clean1), normalize.Tokenize(clean2))

	score := (s.cfg.Text.Sequence*seq + s.cfg.Text.Jaccard*jaccard) * 100
	return round2(clamp(score, 0, 100))
}

// LocationSimilarity returns a 0-1 ratio for two location labels
func (s *Scorer) LocationSimilarity(loc1, loc2 string) float64 {
	ratio, _ := s.LocationMatch(loc1, loc2)
	return ratio
}

// LocationMatch returns the location ratio together with the name of the
// taxonomy group both labels fall into, or "" when they share none
func (s *Scorer) LocationMatch(loc1, loc2 string) (float64, string) {
	lower1 := strings.ToLower(loc1)
	lower2 := strings.ToLower(loc2)

	direct := normalize.SequenceRatio(lower1, lower2)

	group := s.sharedLocationGroup(lower1, lower2)
	if group != "" && s.cfg.LocationGroupScore > direct {
		return s.cfg.LocationGroupScore, group
	}
	return direct, group
}

// sharedLocationGroup returns the first group whose keywords occur in both labels
func (s *Scorer) sharedLocationGroup(lower1, lower2 string) string {
	for _, g := range s.cfg.LocationGroups {
		if normalize.ContainsAny(lower1, g.Keywords) && normalize.ContainsAny(lower2, g.Keywords) {
			return g.Name
		}
	}
	return ""
}

// ExtractIdentification returns the trimmed text following the identification
// marker in a description
func (s *Scorer) ExtractIdentification(description string) (string, bool) {
	marker := s.cfg.IdentificationMarker
	if marker == "" {
		return "", false
	}
	idx := strings.Index(description, marker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(description[idx+len(marker):]), true
}

// IdentificationSimilarity compares the identification fragments of two
// descriptions category by category. The score is the mean text similarity
// over categories mentioned by at least one side, where only categories
// mentioned by both sides contribute. With no category mentioned at all the
// fragments are compared as plain text.
func (s *Scorer) IdentificationSimilarity(desc1, desc2 string) float64 {
	frag1, ok1 := s.ExtractIdentification(desc1)
	frag2, ok2 := s.ExtractIdentification(desc2)
	if !ok1 || !ok2 {
		return 0.0
	}

	lower1 := strings.ToLower(frag1)
	lower2 := strings.ToLower(frag2)
	fragmentSim := s.TextSimilarity(frag1, frag2)

	var total float64
	var active int
	for _, cat := range s.cfg.IdentificationCategories {
		in1 := normalize.ContainsAny(lower1, cat.Keywords)
		in2 := normalize.ContainsAny(lower2, cat.Keywords)
		if !in1 && !in2 {
			continue
		}
		active++
		if in1 && in2 {
			total += fragmentSim
		}
	}

	if active == 0 {
		return fragmentSim
	}
	return round2(clamp(total/float64(active), 0, 100))
}

// CompositeScore blends per-field similarities of two reports into a 0-1
// ratio, returning the field scores alongside
func (s *Scorer) CompositeScore(a, b Report) (overall, name, description, location float64) {
	name = s.TextSimilarity(a.ItemName, b.ItemName) / 100
	description = s.TextSimilarity(a.Description, b.Description) / 100
	location = s.LocationSimilarity(a.Location, b.Location)

	w := s.cfg.Composite
	overall = w.Name*name + w.Description*description + w.Location*location
	return overall, name, description, location
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
