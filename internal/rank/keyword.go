package rank

import (
	"strings"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/textnorm"
)

type weightedTerm struct {
	matcher
	weight int
}

// KeywordScorer adds CoreWeight per core term, RelatedWeight per related term
// and subtracts the weight of every negative term found in an ad. Each term
// counts once no matter how often it occurs.
type KeywordScorer struct {
	norm      *textnorm.Normalizer
	positive  []weightedTerm
	negative  []weightedTerm
	softeners []matcher
	softened  int
	skipped   []string
}

// defaultSoftenedWeight applies when softeners are set without a weight.
const defaultSoftenedWeight = 1

// NewKeywordScorer validates p and compiles its terms. Terms go through norm
// so they compare against ad text normalized the same way.
func NewKeywordScorer(p config.Profile, norm *textnorm.Normalizer) (*KeywordScorer, error) {
	p, _, err := config.ValidateProfile(p)
	if err != nil {
		return nil, err
	}
	if norm == nil {
		norm = &textnorm.Normalizer{}
	}

	s := &KeywordScorer{norm: norm, softened: p.SoftenedNegativeWeight}
	if s.softened <= 0 {
		s.softened = defaultSoftenedWeight
	}

	compile := func(term string) (matcher, bool) {
		n := norm.Normalize(term)
		if n == "" {
			s.skipped = append(s.skipped, term)
			return matcher{}, false
		}
		return newMatcher(n, p.ShortTermLength), true
	}

	for _, t := range p.CoreTerms {
		if m, ok := compile(t); ok {
			s.positive = append(s.positive, weightedTerm{m, config.CoreWeight})
		}
	}
	for _, t := range p.RelatedTerms {
		if m, ok := compile(t); ok {
			s.positive = append(s.positive, weightedTerm{m, config.RelatedWeight})
		}
	}
	for _, t := range p.NegativeTerms {
		if m, ok := compile(t.Term); ok {
			s.negative = append(s.negative, weightedTerm{m, p.NegativeWeight(t)})
		}
	}
	for _, t := range p.PenaltySofteners {
		if m, ok := compile(t); ok {
			s.softeners = append(s.softeners, m)
		}
	}

	s.positive = dedupeTerms(s.positive)
	s.negative = dedupeTerms(s.negative)
	return s, nil
}

// Skipped lists profile terms that normalized to nothing (all stopwords).
func (s *KeywordScorer) Skipped() []string { return s.skipped }

func (s *KeywordScorer) Score(ad domain.JobAd) (int, []string) {
	return s.ScoreText(ad.Text())
}

// ScoreText scores raw text. Tags are the matched terms, negatives prefixed
// with '-'.
func (s *KeywordScorer) ScoreText(raw string) (int, []string) {
	text := s.norm.Normalize(raw)

	score := 0
	var tags []string

	for _, t := range s.positive {
		if t.match(text) {
			score += t.weight
			tags = append(tags, t.term)
		}
	}

	soft := false
	for _, m := range s.softeners {
		if m.match(text) {
			soft = true
			break
		}
	}
	for _, t := range s.negative {
		if !t.match(text) {
			continue
		}
		if soft {
			score -= min(s.softened, t.weight)
		} else {
			score -= t.weight
		}
		tags = append(tags, "-"+t.term)
	}

	return score, uniq(tags)
}

// dedupeTerms drops repeats that only became equal after normalization, e.g.
// "SOC" and "soc.". The first occurrence wins.
func dedupeTerms(in []weightedTerm) []weightedTerm {
	seen := map[string]bool{}
	out := in[:0]
	for _, t := range in {
		key := strings.ToLower(t.term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
