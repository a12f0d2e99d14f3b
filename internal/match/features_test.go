package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		want     float64
		minScore float64
		maxScore float64
	}{
		{name: "identical", a: "Black leather wallet", b: "black leather wallet!", want: 100},
		{name: "empty left", a: "", b: "wallet", want: 0},
		{name: "empty right", a: "wallet", b: "", want: 0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
		{name: "related", a: "black iphone cracked screen", b: "black phone cracked screen", minScore: 70, maxScore: 95},
		{name: "unrelated", a: "blue umbrella", b: "car keys on ring", minScore: 0, maxScore: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextSimilarity(tt.a, tt.b)
			if tt.maxScore > 0 {
				assert.GreaterOrEqual(t, got, tt.minScore)
				assert.LessOrEqual(t, got, tt.maxScore)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextSimilarityPunctuationOnly(t *testing.T) {
	// both sides clean to "", so only the sequence ratio contributes
	assert.Equal(t, 60.0, TextSimilarity("!!!", "???"))
	assert.Equal(t, 100.0, TextSimilarity("!!!", "!!!"))
}

func TestPropertyTextSimilaritySymmetric(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.StringMatching(`[A-Za-z0-9 ,.!]{0,60}`).Draw(t, "a")
		b := rapid.StringMatching(`[A-Za-z0-9 ,.!]{0,60}`).Draw(t, "b")

		if TextSimilarity(a, b) != TextSimilarity(b, a) {
			t.Fatalf("asymmetric similarity for %q / %q", a, b)
		}
	})
}

func TestPropertyTextSimilaritySelfMatch(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringN(1, 80, -1).Draw(t, "s")

		if got := TextSimilarity(s, s); got != 100.0 {
			t.Fatalf("self similarity of %q is %f", s, got)
		}
		if got := TextSimilarity("", s); got != 0.0 {
			t.Fatalf("empty similarity against %q is %f", s, got)
		}
	})
}

func TestPropertyTextSimilarityBounds(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.String().Draw(t, "a")
		b := rapid.String().Draw(t, "b")

		got := TextSimilarity(a, b)
		if got < 0 || got > 100 {
			t.Fatalf("similarity %f out of range", got)
		}
	})
}

func TestLocationMatch(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		wantGroup string
		minRatio  float64
		maxRatio  float64
	}{
		{"same group different words", "library", "study hall", "library", 0.8, 0.8},
		{"group in longer label", "Library", "library reading room", "library", 0.8, 0.8},
		{"exact", "Gym", "gym", "gym", 1.0, 1.0},
		{"different groups", "parking garage", "cafeteria", "", 0, 0.5},
		{"no group", "north lawn", "south lawn", "", 0.5, 0.9},
		{"both empty", "", "", "", 1.0, 1.0},
		{"one empty", "library", "", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, group := NewScorer().LocationMatch(tt.a, tt.b)
			assert.Equal(t, tt.wantGroup, group)
			assert.GreaterOrEqual(t, ratio, tt.minRatio)
			assert.LessOrEqual(t, ratio, tt.maxRatio)
		})
	}

	assert.GreaterOrEqual(t, LocationSimilarity("library", "study hall"), 0.8)
}

func TestLocationGroupOrder(t *testing.T) {
	// "book" and "room" put both labels in library and classroom; library is checked first
	_, group := NewScorer().LocationMatch("book room", "reading room")
	assert.Equal(t, "library", group)
}

func TestExtractIdentification(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Black bag | IDENTIFICATION: scratch on corner, serial XJ221", "scratch on corner, serial XJ221", true},
		{"Black bag", "", false},
		{"| IDENTIFICATION:   ", "", true},
		{"Black bag | identification: lower case", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractIdentification(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentificationSimilarity(t *testing.T) {
	t.Run("missing marker", func(t *testing.T) {
		assert.Equal(t, 0.0, IdentificationSimilarity("bag | IDENTIFICATION: red", "bag"))
		assert.Equal(t, 0.0, IdentificationSimilarity("bag", "bag | IDENTIFICATION: red"))
	})

	t.Run("same details", func(t *testing.T) {
		desc := "Backpack | IDENTIFICATION: red scratch on zipper"
		assert.Equal(t, 100.0, IdentificationSimilarity(desc, desc))
	})

	t.Run("no category mentioned falls back to fragment text", func(t *testing.T) {
		a := "Umbrella | IDENTIFICATION: wooden handle"
		b := "Umbrella | IDENTIFICATION: wooden handle"
		assert.Equal(t, 100.0, IdentificationSimilarity(a, b))
	})

	t.Run("one-sided categories dilute the average", func(t *testing.T) {
		// physical on both sides, colour only left, size only right
		a := "Laptop | IDENTIFICATION: red sticker"
		b := "Laptop | IDENTIFICATION: sticker large"
		fragment := TextSimilarity("red sticker", "sticker large")
		assert.InDelta(t, fragment/3, IdentificationSimilarity(a, b), 0.01)
	})

	t.Run("no shared category scores zero", func(t *testing.T) {
		a := "Phone | IDENTIFICATION: red"
		b := "Phone | IDENTIFICATION: tiny"
		assert.Equal(t, 0.0, IdentificationSimilarity(a, b))
	})
}

func TestCompositeScore(t *testing.T) {
	s := NewScorer()
	a := Report{ItemName: "Wallet", Description: "brown leather wallet", Location: "library"}

	overall, name, desc, loc := s.CompositeScore(a, a)
	assert.InDelta(t, 1.0, overall, 1e-9)
	assert.Equal(t, 1.0, name)
	assert.Equal(t, 1.0, desc)
	assert.Equal(t, 1.0, loc)

	b := Report{ItemName: "Umbrella", Description: "", Location: "gym"}
	overall, _, desc, _ = s.CompositeScore(a, b)
	assert.Equal(t, 0.0, desc)
	assert.Less(t, overall, 0.3)

	// neither report names a location, so the location weight is kept in full
	noLoc := Report{ItemName: "Wallet", Description: "brown leather wallet"}
	overall, _, _, loc = s.CompositeScore(noLoc, noLoc)
	assert.Equal(t, 1.0, loc)
	assert.InDelta(t, 1.0, overall, 1e-9)
}

func TestScorerConfigIsCopied(t *testing.T) {
	cfg := DefaultConfig()
	s := NewScorerWithConfig(cfg)

	cfg.LocationGroups[0].Keywords[0] = "changed"
	cfg.LocationGroupScore = 0

	assert.Equal(t, "library", s.Config().LocationGroups[0].Keywords[0])
	assert.Equal(t, 0.8, s.LocationSimilarity("library", "study hall"))
}
