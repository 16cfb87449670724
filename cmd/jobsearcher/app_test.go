package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/config"
	"github.com/mlowdi/jobsearcher/internal/domain"
	"github.com/mlowdi/jobsearcher/internal/textnorm"
)

func withConfig(t *testing.T, kv map[string]any) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	config.SetDefaults(viper.GetViper())
	for k, v := range kv {
		viper.Set(k, v)
	}
}

func TestNewApplicationBootstrapsDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	withConfig(t, map[string]any{"data-dir": dir})

	a, err := newApplication()
	require.NoError(t, err)
	defer a.Close()

	assert.FileExists(t, filepath.Join(dir, "profile.yml"))
	assert.FileExists(t, filepath.Join(dir, "jobsearcher.db"))
	assert.NotNil(t, a.runner.Embedder)
	assert.NotNil(t, a.runner.Publisher)
	assert.Equal(t, []string{"jobtech"}, a.secretAccounts())

	_, err = a.readReference()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewApplicationWithoutEmbedding(t *testing.T) {
	withConfig(t, map[string]any{
		"data-dir":                t.TempDir(),
		"embedding.enabled":       false,
		"embedding.token-account": "llm",
	})

	a, err := newApplication()
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.runner.Embedder)
	assert.Equal(t, []string{"jobtech", "llm"}, a.secretAccounts())
}

func TestNewApplicationRejectsBadConfig(t *testing.T) {
	withConfig(t, map[string]any{"data-dir": t.TempDir(), "fetch.limit": 0})

	_, err := newApplication()
	var ce *config.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Problems, "fetch.limit must be > 0")
}

func TestLoadScorerRejectsEmptyCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, os.WriteFile(path, []byte("core_terms: []\nrelated_terms: [risk]\n"), 0o644))

	_, err := loadScorer(path, textnorm.New(nil), zap.NewNop())
	var ce *config.ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestReloadProfileSwapsScorer(t *testing.T) {
	withConfig(t, map[string]any{"data-dir": t.TempDir(), "embedding.enabled": false})

	a, err := newApplication()
	require.NoError(t, err)
	defer a.Close()

	err = a.reloadProfile(config.Profile{
		CoreTerms:             []string{"golang"},
		RelatedTerms:          []string{"sqlite"},
		DefaultNegativeWeight: config.DefaultNegativeWeight,
		ShortTermLength:       config.DefaultShortTermLength,
	})
	require.NoError(t, err)

	score, tags := a.runner.Scorer.Score(domain.JobAd{Title: "Golang developer", Description: "SQLite"})
	assert.Equal(t, 5, score)
	assert.ElementsMatch(t, []string{"golang", "sqlite"}, tags)
}
