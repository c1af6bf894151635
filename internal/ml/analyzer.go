package ml

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Analyzer turns raw text into the terms a vectorizer counts.
type Analyzer struct {
	StripAccents bool `json:"strip_accents"`
	StopWords    bool `json:"stop_words"`
	NGramMax     int  `json:"ngram_max"`
}

// Terms lowercases, optionally strips accents, splits into word tokens of at
// least two characters, drops English stop words if enabled, and emits word
// n-grams from 1 to NGramMax joined by a single space.
func (a Analyzer) Terms(text string) []string {
	if a.StripAccents {
		text = stripAccents(text)
	}
	tokens := tokenize(strings.ToLower(text))
	if a.StopWords {
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := englishStopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	maxN := a.NGramMax
	if maxN < 1 {
		maxN = 1
	}
	if maxN == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*maxN)
	terms = append(terms, tokens...)
	for n := 2; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// tokenize returns maximal runs of word characters that are at least two runes long.
func tokenize(s string) []string {
	var tokens []string
	start, n := -1, 0
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start, n = i, 0
			}
			n++
			continue
		}
		if start >= 0 && n >= 2 {
			tokens = append(tokens, s[start:i])
		}
		start = -1
	}
	if start >= 0 && n >= 2 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
