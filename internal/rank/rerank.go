package rank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/textnorm"
)

const DefaultTopN = 20

// Embedder turns texts into vectors, one per input and in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Reranker turns keyword-scored candidates into ranked entries.
type Reranker interface {
	Rerank(ctx context.Context, cands []Candidate) ([]domain.Ranked, error)
	// Embedding reports whether this strategy produces embedding scores.
	Embedding() bool
}

type RerankOptions struct {
	TopN     int
	MaxChars int
}

// KeywordOnly sets FinalScore to the keyword score and leaves EmbeddingScore nil.
type KeywordOnly struct{}

func (KeywordOnly) Embedding() bool { return false }

func (KeywordOnly) Rerank(_ context.Context, cands []Candidate) ([]domain.Ranked, error) {
	out := make([]domain.Ranked, 0, len(cands))
	for _, c := range cands {
		out = append(out, keywordEntry(c))
	}
	return out, nil
}

func keywordEntry(c Candidate) domain.Ranked {
	return domain.Ranked{
		Ad: c.Ad,
		Score: domain.ScoreRecord{
			AdID:         c.Ad.ID,
			KeywordScore: c.KeywordScore,
			FinalScore:   float64(c.KeywordScore),
			Tags:         c.Tags,
		},
	}
}

// EmbeddingReranker scores the top candidates by cosine similarity to a
// reference vector computed once at selection time.
type EmbeddingReranker struct {
	emb       Embedder
	reference []float64
	opts      RerankOptions
	log       *zap.Logger
}

func (*EmbeddingReranker) Embedding() bool { return true }

// SelectReranker probes emb with the reference document and returns the
// embedding strategy when that works, KeywordOnly otherwise.
func SelectReranker(ctx context.Context, emb Embedder, reference string, opts RerankOptions, log *zap.Logger) Reranker {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if emb == nil {
		log.Info("embedding disabled, keyword ranking only")
		return KeywordOnly{}
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		log.Warn("reference document is empty, keyword ranking only")
		return KeywordOnly{}
	}

	vecs, err := emb.Embed(ctx, []string{textnorm.Truncate(reference, opts.MaxChars)})
	if err == nil && (len(vecs) != 1 || len(vecs[0]) == 0) {
		err = fmt.Errorf("probe returned %d vectors", len(vecs))
	}
	if err != nil {
		log.Warn("embedding service unavailable, keyword ranking only", zap.Error(err))
		return KeywordOnly{}
	}

	log.Debug("embedding probe ok", zap.Int("dims", len(vecs[0])))
	return &EmbeddingReranker{emb: emb, reference: vecs[0], opts: opts, log: log}
}

// Rerank embeds the top-N candidates in one batch. Any failure returns
// ErrRerankUnavailable and no entries, so the caller can fall back for the
// whole run.
func (r *EmbeddingReranker) Rerank(ctx context.Context, cands []Candidate) ([]domain.Ranked, error) {
	if len(cands) == 0 {
		return nil, nil
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cands[order[a]].KeywordScore > cands[order[b]].KeywordScore
	})

	n := min(r.opts.TopN, len(cands))
	top := order[:n]

	texts := make([]string, 0, n)
	ceiling := cands[top[0]].KeywordScore
	for _, i := range top {
		texts = append(texts, textnorm.Truncate(cands[i].Ad.Text(), r.opts.MaxChars))
		ceiling = max(ceiling, cands[i].KeywordScore)
	}

	vecs, err := r.emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRerankUnavailable, err)
	}
	if len(vecs) != n {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrRerankUnavailable, len(vecs), n)
	}

	sims := make([]float64, n)
	for k, v := range vecs {
		sim, err := Cosine(v, r.reference)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRerankUnavailable, err)
		}
		sims[k] = sim
	}

	out := make([]domain.Ranked, len(cands))
	for i, c := range cands {
		out[i] = keywordEntry(c)
	}
	for k, i := range top {
		sim := sims[k]
		out[i].Score.EmbeddingScore = &sim
		out[i].Score.FinalScore = rerankedScore(ceiling, sim)
	}

	r.log.Debug("reranked", zap.Int("candidates", n), zap.Int("ceiling", ceiling))
	return out, nil
}

// Cosine returns the cosine similarity of a and b. A zero vector yields 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// rerankedScore maps sim from [-1, 1] onto (ceiling+1, ceiling+2], so a
// reranked ad always outscores any ad left at its keyword score and a
// lower similarity still orders below a higher one.
func rerankedScore(ceiling int, sim float64) float64 {
	switch {
	case math.IsNaN(sim):
		sim = -1
	case sim < -1:
		sim = -1
	case sim > 1:
		sim = 1
	}
	return float64(ceiling) + 1 + (sim+1)/2
}
