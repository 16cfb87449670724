package rank

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type matchMode int

const (
	substring matchMode = iota
	boundary
)

// matcher finds one normalized term in normalized text.
type matcher struct {
	term string
	mode matchMode
}

func newMatcher(term string, shortLen int) matcher {
	m := matcher{term: term, mode: substring}
	if utf8.RuneCountInString(term) <= shortLen {
		m.mode = boundary
	}
	return m
}

func (m matcher) match(text string) bool {
	if m.term == "" {
		return false
	}
	if m.mode == substring {
		return strings.Contains(text, m.term)
	}
	return containsBounded(text, m.term)
}

// containsBounded reports whether term occurs in text with no letter or digit
// directly on either side. Characters inside term are compared literally.
func containsBounded(text, term string) bool {
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)

		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
