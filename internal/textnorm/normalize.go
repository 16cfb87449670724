// Package textnorm turns raw ad text into the lowercase token stream that the
// keyword scorer matches against.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalizer lowercases, tokenizes and strips stopwords. The zero value has
// no stopwords and is ready to use.
type Normalizer struct {
	stopwords map[string]struct{}
}

func New(stopwords map[string]struct{}) *Normalizer {
	return &Normalizer{stopwords: stopwords}
}

// Tokens splits text on whitespace and trims surrounding punctuation from
// each token. '#' and '+' survive so terms like "c#" and "c++" still match.
func (n *Normalizer) Tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(CleanText(text)))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, isEdge)
		if tok == "" {
			continue
		}
		if n.IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Normalize returns the tokens joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Tokens(text), " ")
}

func (n *Normalizer) IsStopword(tok string) bool {
	if n == nil || len(n.stopwords) == 0 {
		return false
	}
	_, ok := n.stopwords[tok]
	return ok
}

func isEdge(r rune) bool {
	if r == '#' || r == '+' {
		return false
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most limit runes. A non-positive limit disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
