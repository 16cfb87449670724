// Package pipeline runs one batch end to end: fetch, score, rerank, rank,
// persist and publish.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/events"
	"github.com/mlowdi/jobsearcher/internal/fetch"
	"github.com/mlowdi/jobsearcher/internal/rank"
	"github.com/mlowdi/jobsearcher/internal/store"
)

// Publisher hands the ranked result to the outside world.
type Publisher interface {
	Publish(ctx context.Context, ranked []domain.Ranked, meta domain.RunMetadata) (string, error)
}

type Runner struct {
	Fetcher   fetch.Fetcher
	Scorer    rank.Scorer
	Embedder  rank.Embedder // nil disables reranking
	Rerank    rank.RerankOptions
	Store     *store.DB
	Publisher Publisher // optional
	Log       *zap.Logger

	Reference string
	// LoadReference, when set, replaces Reference and is called once per run.
	LoadReference func() (string, error)

	// Notify, when set, is called with events.TypeRunStarted and
	// events.TypeRunFinished.
	Notify func(event string, meta domain.RunMetadata)

	Now      func() time.Time
	NewRunID func() string

	running atomic.Bool
	mu      sync.Mutex
	status  Status
}

// Status is the runner's view of the current and last run.
type Status struct {
	Running    bool                `json:"running"`
	CurrentRun string              `json:"currentRun,omitempty"`
	Last       *domain.RunMetadata `json:"last,omitempty"`
	ReportPath string              `json:"reportPath,omitempty"`
}

type Result struct {
	Meta       domain.RunMetadata
	Ranked     []domain.Ranked
	ReportPath string
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Run executes one batch. It returns ErrRunInProgress when called while
// another run of the same Runner is active, and a *StageError on failure.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunInProgress
	}
	defer r.running.Store(false)

	log := r.logger()
	meta := domain.RunMetadata{RunID: r.runID(), StartedAt: r.now()}
	log = log.With(zap.String("run", meta.RunID))

	r.setStatus(func(s *Status) {
		s.Running = true
		s.CurrentRun = meta.RunID
	})
	r.notify(events.TypeRunStarted, meta)

	res, err := r.run(ctx, log, meta)

	r.setStatus(func(s *Status) {
		s.Running = false
		s.CurrentRun = ""
		m := res.Meta
		s.Last = &m
		s.ReportPath = res.ReportPath
	})
	r.notify(events.TypeRunFinished, res.Meta)

	if err != nil {
		log.Error("run failed", zap.Error(err), zap.String("status", string(res.Meta.Status)))
		return res, err
	}
	log.Info("run finished",
		zap.String("status", string(res.Meta.Status)),
		zap.Int("fetched", res.Meta.AdsFetched),
		zap.Int("scored", res.Meta.AdsScored),
		zap.Int("new", res.Meta.AdsNew),
		zap.Bool("embedding", res.Meta.EmbeddingAvailable),
	)
	return res, nil
}

func (r *Runner) run(ctx context.Context, log *zap.Logger, meta domain.RunMetadata) (Result, error) {
	res := Result{Meta: meta}

	if r.Store == nil || r.Fetcher == nil {
		return res, errors.New("runner is missing its store or fetcher")
	}
	scorer := r.scorer()
	if scorer == nil {
		return r.fail(ctx, log, res, StageScore, errors.New("no scorer configured"))
	}

	log.Info("fetching ads")
	ads, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return r.fail(ctx, log, res, StageFetch, err)
	}
	ads = domain.DedupeByID(ads)
	res.Meta.AdsFetched = len(ads)

	if len(ads) == 0 {
		log.Info("no ads found")
		res.Meta.Status = domain.RunSuccess
		res.Meta.FinishedAt = r.now()
		if err := r.Store.LogRun(ctx, res.Meta); err != nil {
			return res, &StageError{Stage: StageStore, Err: err}
		}
		return res, nil
	}

	reranker := rank.SelectReranker(ctx, r.Embedder, r.reference(log), r.Rerank, log)

	log.Info("scoring", zap.Int("ads", len(ads)))
	cands := rank.ScoreAll(scorer, ads)

	ranked, err := reranker.Rerank(ctx, cands)
	embedding := reranker.Embedding()
	if err != nil {
		log.Warn("rerank failed, using keyword scores for the whole run", zap.Error(err))
		ranked, _ = rank.KeywordOnly{}.Rerank(ctx, cands)
		embedding = false
	}
	ranked = rank.Rank(ranked)

	res.Meta.AdsScored = len(ranked)
	res.Meta.EmbeddingAvailable = embedding
	res.Meta.Status = domain.RunSuccess
	if !embedding {
		res.Meta.Status = domain.RunPartial
	}

	newCount, err := r.persist(ctx, &res.Meta, ranked)
	if err != nil {
		res.Meta.AdsNew = 0
		return r.fail(ctx, log, res, StageStore, err)
	}
	res.Meta.AdsNew = newCount
	res.Ranked = ranked
	log.Info("stored", zap.Int("new", newCount), zap.Int("updated", len(ranked)-newCount))

	if r.Publisher != nil {
		path, err := r.Publisher.Publish(ctx, ranked, res.Meta)
		if err != nil {
			return res, &StageError{Stage: StagePublish, Err: err}
		}
		res.ReportPath = path
	}
	return res, nil
}

// persist writes every ranked ad and the run row in one session.
func (r *Runner) persist(ctx context.Context, meta *domain.RunMetadata, ranked []domain.Ranked) (int, error) {
	sess, err := r.Store.Begin(ctx, meta.RunID, meta.StartedAt)
	if err != nil {
		return 0, err
	}
	defer sess.Close()

	newCount := 0
	for i := range ranked {
		up, err := sess.Upsert(ctx, ranked[i].Ad, ranked[i].Score)
		if err != nil {
			return 0, err
		}
		if up.Inserted {
			newCount++
		}
		ranked[i].Score.FirstSeen = up.FirstSeen
		ranked[i].Score.LastSeen = up.LastSeen
	}

	meta.AdsNew = newCount
	meta.FinishedAt = r.now()
	if err := sess.LogRun(ctx, *meta); err != nil {
		return 0, err
	}
	if err := sess.Commit(); err != nil {
		return 0, err
	}
	return newCount, nil
}

// fail records a failure run outside any session and wraps err.
func (r *Runner) fail(ctx context.Context, log *zap.Logger, res Result, stage Stage, err error) (Result, error) {
	res.Meta.Status = domain.RunFailure
	res.Meta.Error = err.Error()
	res.Meta.FinishedAt = r.now()
	res.Ranked = nil

	if lerr := r.Store.LogRun(context.WithoutCancel(ctx), res.Meta); lerr != nil {
		log.Error("could not record failed run", zap.Error(lerr))
	}
	return res, &StageError{Stage: stage, Err: err}
}

// SetScorer swaps the scorer used by later runs, e.g. after the profile
// was edited. A run in progress keeps the scorer it started with.
func (r *Runner) SetScorer(s rank.Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scorer = s
}

func (r *Runner) scorer() rank.Scorer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Scorer
}

func (r *Runner) reference(log *zap.Logger) string {
	if r.LoadReference == nil {
		return r.Reference
	}
	ref, err := r.LoadReference()
	if err != nil {
		log.Warn("reference document unavailable", zap.Error(err))
		return ""
	}
	return ref
}

func (r *Runner) setStatus(fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.status)
}

func (r *Runner) notify(event string, meta domain.RunMetadata) {
	if r.Notify != nil {
		r.Notify(event, meta)
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
