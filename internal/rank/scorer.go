// Package rank scores ads against a keyword profile, optionally reranks the
// best of them by embedding similarity, and orders the result.
package rank

import (
	"errors"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

// ErrRerankUnavailable means the embedding pass could not be completed. The
// whole run then falls back to keyword scores.
var ErrRerankUnavailable = errors.New("rerank unavailable")

type Scorer interface {
	Score(ad domain.JobAd) (score int, tags []string)
}

// Candidate is an ad with its keyword score, ready for reranking.
type Candidate struct {
	Ad           domain.JobAd
	KeywordScore int
	Tags         []string
}

// ScoreAll runs s over every ad, keeping input order.
func ScoreAll(s Scorer, ads []domain.JobAd) []Candidate {
	out := make([]Candidate, 0, len(ads))
	for _, ad := range ads {
		score, tags := s.Score(ad)
		out = append(out, Candidate{Ad: ad, KeywordScore: score, Tags: tags})
	}
	return out
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
