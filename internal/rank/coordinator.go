package rank

import (
	"sort"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

// Rank orders entries by FinalScore, then KeywordScore, then newest
// PublishedAt, then ID. Entries with and without an embedding score are
// treated alike. The slice is sorted in place and returned.
func Rank(entries []domain.Ranked) []domain.Ranked {
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
	return entries
}

func less(a, b domain.Ranked) bool {
	if a.Score.FinalScore != b.Score.FinalScore {
		return a.Score.FinalScore > b.Score.FinalScore
	}
	if a.Score.KeywordScore != b.Score.KeywordScore {
		return a.Score.KeywordScore > b.Score.KeywordScore
	}
	if !a.Ad.PublishedAt.Equal(b.Ad.PublishedAt) {
		return a.Ad.PublishedAt.After(b.Ad.PublishedAt)
	}
	return a.Ad.ID < b.Ad.ID
}
