// Package search implements free-text search over reports: query keywords
// are matched against each report's keywords, with tolerance for typos, and
// blended with overall text similarity.
package search

import (
	"sort"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/match"
	"github.com/klu-lostfound/internal/normalize"
)

// Config holds the search weights and cutoffs
type Config struct {
	KeywordWeight    float64 // 0.6
	TextWeight       float64 // 0.4
	MinScore         float64 // results must score above this
	HighRelevance    float64
	MediumRelevance  float64
	Limit            int
	FuzzySimilarity  float32 // Jaro-Winkler similarity for a keyword to count as matched
	FuzzyMinLength   int     // shorter keywords must match exactly
	FuzzyMaxLenDelta int
}

// DefaultConfig returns the standard search settings
func DefaultConfig() Config {
	return Config{
		KeywordWeight:    0.6,
		TextWeight:       0.4,
		MinScore:         0.2,
		HighRelevance:    0.6,
		MediumRelevance:  0.4,
		Limit:            10,
		FuzzySimilarity:  0.92,
		FuzzyMinLength:   5,
		FuzzyMaxLenDelta: 2,
	}
}

// Hit is one report matching a query
type Hit struct {
	Report    match.Report `json:"report"`
	Score     float64      `json:"score"`
	Relevance string       `json:"relevance"`
	Matched   []string     `json:"matched_keywords"`
}

// Searcher ranks reports against free-text queries
type Searcher struct {
	cfg    Config
	scorer *match.Scorer
}

// NewSearcher creates a searcher; a nil scorer uses the default one
func NewSearcher(cfg Config, scorer *match.Scorer) *Searcher {
	if scorer == nil {
		scorer = match.NewScorer()
	}
	return &Searcher{cfg: cfg, scorer: scorer}
}

// Search returns the best reports for query, most relevant first
func (s *Searcher) Search(query string, reports []match.Report) []Hit {
	queryKeywords := normalize.ExtractKeywords(query)
	hits := []Hit{}

	for _, r := range reports {
		searchable := r.ItemName + " " + r.Description + " " + r.Location
		matched := s.matchKeywords(queryKeywords, normalize.ExtractKeywords(searchable))

		keywordScore := float64(len(matched)) / float64(max(len(queryKeywords), 1))
		textScore := s.scorer.TextSimilarity(query, searchable) / 100
		score := s.cfg.KeywordWeight*keywordScore + s.cfg.TextWeight*textScore

		if score <= s.cfg.MinScore {
			continue
		}
		hits = append(hits, Hit{
			Report:    r,
			Score:     score,
			Relevance: s.relevance(score),
			Matched:   matched,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if s.cfg.Limit > 0 && len(hits) > s.cfg.Limit {
		hits = hits[:s.cfg.Limit]
	}

	log.Debug().Str("query", query).Int("hits", len(hits)).Msg("search complete")
	return hits
}

func (s *Searcher) relevance(score float64) string {
	switch {
	case score > s.cfg.HighRelevance:
		return "High"
	case score > s.cfg.MediumRelevance:
		return "Medium"
	default:
		return "Low"
	}
}

// matchKeywords returns the query keywords present in the report keywords,
// exactly or within the fuzzy tolerance
func (s *Searcher) matchKeywords(queryKeywords, reportKeywords []string) []string {
	present := make(map[string]bool, len(reportKeywords))
	for _, k := range reportKeywords {
		present[k] = true
	}

	matched := []string{}
	for _, q := range queryKeywords {
		if present[q] || s.fuzzyPresent(q, reportKeywords) {
			matched = append(matched, q)
		}
	}
	return matched
}

func (s *Searcher) fuzzyPresent(keyword string, candidates []string) bool {
	if s.cfg.FuzzySimilarity <= 0 || len(keyword) < s.cfg.FuzzyMinLength {
		return false
	}
	for _, c := range candidates {
		if len(c) < s.cfg.FuzzyMinLength {
			continue
		}
		lenDiff := len(keyword) - len(c)
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.cfg.FuzzyMaxLenDelta {
			continue
		}
		if edlib.JaroWinklerSimilarity(keyword, c) >= s.cfg.FuzzySimilarity {
			return true
		}
	}
	return false
}
