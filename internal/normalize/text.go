package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
	reWord     = regexp.MustCompile(`\b\w+\b`)
)

// stopWords are common English function words and pronouns ignored by
// keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "have": {}, "has": {}, "had": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "may": {}, "might": {}, "can": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {},
	"they": {}, "my": {}, "your": {}, "his": {}, "her": {}, "its": {}, "our": {}, "their": {},
}

// CleanText lowercases text and strips every character that is not an ASCII
// letter, digit or whitespace.
func CleanText(text string) string {
	return reNonAlnum.ReplaceAllString(strings.ToLower(text), "")
}

// Tokenize splits text on whitespace
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// WordTokens returns the lowercased alphanumeric runs of text
func WordTokens(text string) []string {
	return reWord.FindAllString(strings.ToLower(text), -1)
}

// IsStopWord reports whether token is in the stop-word list
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// ExtractKeywords returns the distinct lowercase keywords of text: word tokens
// longer than two characters that are not stop words. The result is sorted.
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	for _, word := range WordTokens(text) {
		if len(word) <= 2 || IsStopWord(word) {
			continue
		}
		seen[word] = struct{}{}
	}

	keywords := make([]string, 0, len(seen))
	for word := range seen {
		keywords = append(keywords, word)
	}
	sort.Strings(keywords)
	return keywords
}

// Jaccard returns |A ∩ B| / |A ∪ B| over the distinct tokens of both slices.
// Either side being empty yields 0.
func Jaccard(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]struct{}, len(tokens1))
	for _, token := range tokens1 {
		set1[token] = struct{}{}
	}
	set2 := make(map[string]struct{}, len(tokens2))
	for _, token := range tokens2 {
		set2[token] = struct{}{}
	}

	intersection := 0
	for token := range set2 {
		if _, ok := set1[token]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection

	return float64(intersection) / float64(union)
}

// ContainsAny reports whether text contains any of the substrings
func ContainsAny(text string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
