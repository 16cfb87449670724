package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Rerank.TopN)
	assert.Equal(t, 1440, cfg.Fetch.PublishedAfter)
	assert.Equal(t, 50, cfg.Fetch.Limit)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Report.RecentWindow)
	require.NotEmpty(t, cfg.Fetch.Geography)
	assert.Equal(t, Area{Type: "region", Code: "01"}, cfg.Fetch.Geography[0])
}

func TestValidateCollectsAllProblems(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("database", " ")
	v.Set("rerank.top-n", -1)
	v.Set("embedding.endpoint", "")

	_, err := FromViper(v)
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Problems, 3)
	assert.Contains(t, err.Error(), "rerank.top-n")
}

func TestEmbeddingEndpointOptionalWhenDisabled(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("embedding.enabled", false)
	v.Set("embedding.endpoint", "")

	_, err := FromViper(v)
	assert.NoError(t, err)
}

func TestPath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/js"}
	assert.Equal(t, "/var/lib/js/profile.yml", cfg.Path("profile.yml"))
	assert.Equal(t, "/etc/profile.yml", cfg.Path("/etc/profile.yml"))
	assert.Equal(t, "", cfg.Path(" "))
}

func TestLoadProfileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
core_terms: [soc, kql]
related_terms: [risk]
negative_terms:
  - bemanning
  - term: läkemedel
    weight: 5
`), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"soc", "kql"}, p.CoreTerms)
	assert.Equal(t, DefaultShortTermLength, p.ShortTermLength)
	require.Len(t, p.NegativeTerms, 2)
	assert.Equal(t, NegativeTerm{Term: "bemanning"}, p.NegativeTerms[0])
	assert.Equal(t, 3, p.NegativeWeight(p.NegativeTerms[0]))
	assert.Equal(t, 5, p.NegativeWeight(p.NegativeTerms[1]))
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestNormalizeAndValidate(t *testing.T) {
	p := Profile{
		CoreTerms:             []string{" SOC ", "soc", "kql"},
		RelatedTerms:          []string{"risk"},
		NegativeTerms:         []NegativeTerm{{Term: "bygg"}, {Term: "Bygg"}},
		DefaultNegativeWeight: 3,
		ShortTermLength:       4,
	}

	out, res := NormalizeAndValidate(p)

	assert.True(t, res.OK())
	assert.Equal(t, []string{"SOC", "kql"}, out.CoreTerms)
	assert.Len(t, out.NegativeTerms, 1)
	assert.Len(t, res.Warnings, 2)
}

func TestValidateProfileRejectsEmptyCategories(t *testing.T) {
	_, _, err := ValidateProfile(Profile{DefaultNegativeWeight: 3})

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Problems, "core_terms must have at least 1 term")
	assert.Contains(t, cerr.Problems, "related_terms must have at least 1 term")
}

func TestDefaultProfileIsValid(t *testing.T) {
	_, _, err := ValidateProfile(DefaultProfile())
	assert.NoError(t, err)
}

func TestEnsureProfileWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "profile.yml")

	got, err := EnsureProfile(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().CoreTerms, p.CoreTerms)
}

func TestEnsureProfileCopiesTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.yml")
	require.NoError(t, os.WriteFile(tmpl, []byte("core_terms: [a]\nrelated_terms: [b]\n"), 0o644))
	path := filepath.Join(dir, "profile.yml")

	_, err := EnsureProfile(path, tmpl)
	require.NoError(t, err)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, p.CoreTerms)
	assert.Equal(t, []string{"b"}, p.RelatedTerms)
}

func TestEnsureProfileRejectsInvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.yml")
	require.NoError(t, os.WriteFile(tmpl, []byte("core_terms: []\nrelated_terms: [b]\n"), 0o644))
	path := filepath.Join(dir, "profile.yml")

	_, err := EnsureProfile(path, tmpl)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.NoFileExists(t, path)
}

func TestEnsureProfileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, os.WriteFile(path, []byte("core_terms: [mine]\nrelated_terms: [x]\n"), 0o644))

	_, err := EnsureProfile(path, "")
	require.NoError(t, err)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, p.CoreTerms)
}

func TestSaveProfileAtomicKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	require.NoError(t, SaveProfileAtomic(path, DefaultProfile()))

	p := DefaultProfile()
	p.CoreTerms = []string{"only"}
	require.NoError(t, SaveProfileAtomic(path, p))

	old, err := LoadProfile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile().CoreTerms, old.CoreTerms)

	leftovers, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	got, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got.CoreTerms)
}

func TestSaveProfileAtomicRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	err := SaveProfileAtomic(path, Profile{})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestShippedProfileIsValid(t *testing.T) {
	p, err := LoadProfile(filepath.Join("..", "..", "config", "profile.yml"))
	require.NoError(t, err)

	_, warnings, err := ValidateProfile(p)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	last := p.NegativeTerms[len(p.NegativeTerms)-1]
	assert.Equal(t, NegativeTerm{Term: "consultant manager", Weight: 5}, last)
	assert.Equal(t, 5, p.NegativeWeight(last))
	assert.Equal(t, 3, p.NegativeWeight(p.NegativeTerms[0]))
}

func TestExampleConfigLoads(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(filepath.Join("..", "..", "jobsearcher.example.yaml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Len(t, cfg.Fetch.Geography, 3)
	assert.Equal(t, Area{Type: "region", Code: "01"}, cfg.Fetch.Geography[0])
	assert.Equal(t, 168*time.Hour, cfg.Report.RecentWindow)
	assert.Equal(t, "0 7 * * 1-5", cfg.Schedule.Spec)
}
