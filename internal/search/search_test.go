package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klu-lostfound/internal/match"
)

func testReports() []match.Report {
	return []match.Report{
		{ID: 1, ItemName: "Umbrella", Description: "blue folding umbrella", Location: "gym"},
		{ID: 2, ItemName: "Black wallet", Description: "leather wallet with student card", Location: "library"},
		{ID: 3, ItemName: "Wallet", Description: "brown wallet", Location: "cafeteria"},
	}
}

func TestSearch(t *testing.T) {
	s := NewSearcher(DefaultConfig(), nil)

	hits := s.Search("black wallet library", testReports())
	require.NotEmpty(t, hits)
	assert.Equal(t, int64(2), hits[0].Report.ID)
	assert.Equal(t, "High", hits[0].Relevance)
	assert.Equal(t, []string{"black", "library", "wallet"}, hits[0].Matched)

	for _, h := range hits {
		assert.NotEqual(t, int64(1), h.Report.ID)
		assert.Greater(t, h.Score, 0.2)
	}
}

func TestSearchToleratesTypos(t *testing.T) {
	s := NewSearcher(DefaultConfig(), nil)

	hits := s.Search("lether walet", testReports())
	require.NotEmpty(t, hits)
	assert.Equal(t, int64(2), hits[0].Report.ID)
	assert.Equal(t, []string{"lether", "walet"}, hits[0].Matched)

	exact := DefaultConfig()
	exact.FuzzySimilarity = 0
	for _, h := range NewSearcher(exact, nil).Search("lether walet", testReports()) {
		assert.Empty(t, h.Matched)
	}
}

func TestSearchShortKeywordsMustMatchExactly(t *testing.T) {
	s := NewSearcher(DefaultConfig(), nil)
	assert.Empty(t, s.matchKeywords([]string{"gim"}, []string{"gym"}))
	assert.Equal(t, []string{"gym"}, s.matchKeywords([]string{"gym"}, []string{"gym"}))
}

func TestSearchEmptyQuery(t *testing.T) {
	hits := NewSearcher(DefaultConfig(), nil).Search("", testReports())
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearchLimit(t *testing.T) {
	var reports []match.Report
	for i := 0; i < 15; i++ {
		reports = append(reports, match.Report{ID: int64(i), ItemName: "Laptop", Description: fmt.Sprintf("silver laptop %d", i)})
	}

	hits := NewSearcher(DefaultConfig(), nil).Search("silver laptop", reports)
	assert.Len(t, hits, 10)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestRelevance(t *testing.T) {
	s := NewSearcher(DefaultConfig(), nil)
	tests := []struct {
		score float64
		want  string
	}{
		{0.9, "High"},
		{0.61, "High"},
		{0.6, "Medium"},
		{0.41, "Medium"},
		{0.4, "Low"},
		{0.21, "Low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.relevance(tt.score), "score %.2f", tt.score)
	}
}
