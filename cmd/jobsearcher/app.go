package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/embed"
	"github.com/mlowdi/jobsearcher/internal/events"
	"github.com/mlowdi/jobsearcher/internal/fetch"
	"github.com/mlowdi/jobsearcher/internal/logger"
	"github.com/mlowdi/jobsearcher/internal/pipeline"
	"github.com/mlowdi/jobsearcher/internal/rank"
	"github.com/mlowdi/jobsearcher/internal/report"
	"github.com/mlowdi/jobsearcher/internal/secrets"
	"github.com/mlowdi/jobsearcher/internal/store"
	"github.com/mlowdi/jobsearcher/internal/textnorm"
)

// defaultProfile is copied into the data dir on first start when present.
var defaultProfile = filepath.Join("config", "profile.yml")

// application is everything a command needs, built once from the config.
type application struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *store.DB
	norm   *textnorm.Normalizer
	hub    *events.Hub
	runner *pipeline.Runner

	profilePath string
}

func newLogger() (*zap.Logger, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return log, nil
}

// openStore is the light path for read-only commands.
func openStore() (*config.Config, *store.DB, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.Path(cfg.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, db, nil
}

func newApplication() (*application, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	profilePath, err := config.EnsureProfile(cfg.Path(cfg.ProfileFile), defaultProfile)
	if err != nil {
		return nil, fmt.Errorf("profile bootstrap failed: %w", err)
	}

	stop, err := textnorm.LoadStopwords(cfg.Path(cfg.StopwordsFile))
	if err != nil {
		return nil, err
	}
	norm := textnorm.New(stop)

	scorer, err := loadScorer(profilePath, norm, log)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Path(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &application{
		cfg:         cfg,
		log:         log,
		db:          db,
		norm:        norm,
		hub:         events.NewHub(),
		profilePath: profilePath,
	}

	a.runner = &pipeline.Runner{
		Fetcher: fetch.NewJobTech(cfg.Fetch, secrets.Lookup(cfg.Fetch.APIKeyAccount), log.Named("fetch")),
		Scorer:  scorer,
		Rerank:  rank.RerankOptions{TopN: cfg.Rerank.TopN, MaxChars: cfg.Embedding.MaxChars},
		Store:   db,
		Publisher: report.FilePublisher{
			Dir:       cfg.Path(cfg.Report.Dir),
			Shortlist: cfg.Report.ShortlistSize,
			Log:       log.Named("report"),
		},
		Log:           log.Named("pipeline"),
		LoadReference: a.readReference,
		Notify: func(event string, meta domain.RunMetadata) {
			if err := a.hub.Emit("", event, meta); err != nil {
				a.log.Warn("event not sent", zap.String("event", event), zap.Error(err))
			}
		},
	}
	if cfg.Embedding.Enabled {
		a.runner.Embedder = embed.New(embed.Config{
			Endpoint:  cfg.Embedding.Endpoint,
			Model:     cfg.Embedding.Model,
			Token:     secrets.Lookup(cfg.Embedding.TokenAccount),
			Timeout:   cfg.Embedding.Timeout,
			BatchSize: cfg.Embedding.BatchSize,
		}, log.Named("embed"))
	}

	return a, nil
}

func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("closing store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *application) readReference() (string, error) {
	b, err := os.ReadFile(a.cfg.Path(a.cfg.ReferenceFile))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// reloadProfile rebuilds the scorer after the profile was saved over HTTP.
func (a *application) reloadProfile(p config.Profile) error {
	s, err := rank.NewKeywordScorer(p, a.norm)
	if err != nil {
		return err
	}
	a.runner.SetScorer(s)
	a.log.Info("profile reloaded", zap.Int("core", len(p.CoreTerms)), zap.Int("related", len(p.RelatedTerms)))
	return nil
}

// secretAccounts are the keyring accounts that may be set over HTTP.
func (a *application) secretAccounts() []string {
	var out []string
	for _, acc := range []string{a.cfg.Fetch.APIKeyAccount, a.cfg.Embedding.TokenAccount} {
		if strings.TrimSpace(acc) != "" {
			out = append(out, acc)
		}
	}
	return out
}

func loadScorer(path string, norm *textnorm.Normalizer, log *zap.Logger) (*rank.KeywordScorer, error) {
	p, err := config.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	p, warnings, err := config.ValidateProfile(p)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	for _, w := range warnings {
		log.Warn("profile", zap.String("warning", w))
	}

	s, err := rank.NewKeywordScorer(p, norm)
	if err != nil {
		return nil, err
	}
	if skipped := s.Skipped(); len(skipped) > 0 {
		log.Warn("profile terms skipped, nothing left after normalization", zap.Strings("terms", skipped))
	}
	return s, nil
}
