package textnorm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadStopwords reads a one-word-per-line file. A missing file yields an
// empty set so scoring keeps working without one.
func LoadStopwords(path string) (map[string]struct{}, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]struct{}{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()

	return ReadStopwords(f)
}

// ReadStopwords skips blank lines and '#' comments.
func ReadStopwords(r io.Reader) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		set[w] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords: %w", err)
	}
	return set, nil
}
