// Package config holds the application settings (read through viper) and the
// scoring profile (a standalone YAML file).
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "JOBSEARCHER"

type Config struct {
	DataDir       string          `mapstructure:"data-dir"`
	Database      string          `mapstructure:"database"`
	ProfileFile   string          `mapstructure:"profile-file"`
	ReferenceFile string          `mapstructure:"reference-file"`
	StopwordsFile string          `mapstructure:"stopwords-file"`
	Fetch         FetchConfig     `mapstructure:"fetch"`
	Embedding     EmbeddingConfig `mapstructure:"embedding"`
	Rerank        RerankConfig    `mapstructure:"rerank"`
	Report        ReportConfig    `mapstructure:"report"`
	Schedule      ScheduleConfig  `mapstructure:"schedule"`
	Serve         ServeConfig     `mapstructure:"serve"`
}

// Area is one geography filter of the search API, e.g. {region 01}.
type Area struct {
	Type string `mapstructure:"type"`
	Code string `mapstructure:"code"`
}

type FetchConfig struct {
	BaseURL          string        `mapstructure:"base-url"`
	PublishedAfter   int           `mapstructure:"published-after"` // minutes
	Limit            int           `mapstructure:"limit"`
	Geography        []Area        `mapstructure:"geography"`
	OccupationGroups []string      `mapstructure:"occupation-groups"`
	FreetextQueries  []string      `mapstructure:"freetext-queries"`
	IncludeRemote    bool          `mapstructure:"include-remote"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RatePerSecond    float64       `mapstructure:"rate-per-second"`
	Burst            int           `mapstructure:"burst"`
	APIKeyAccount    string        `mapstructure:"api-key-account"`
}

type EmbeddingConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"`
	Model        string        `mapstructure:"model"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxChars     int           `mapstructure:"max-chars"`
	BatchSize    int           `mapstructure:"batch-size"`
	TokenAccount string        `mapstructure:"token-account"`
}

type RerankConfig struct {
	TopN int `mapstructure:"top-n"`
}

type ReportConfig struct {
	Dir           string        `mapstructure:"dir"`
	ShortlistSize int           `mapstructure:"shortlist-size"`
	RecentWindow  time.Duration `mapstructure:"recent-window"`
}

type ScheduleConfig struct {
	Spec string `mapstructure:"spec"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers every default on v. The values mirror the search
// the tool was first written for: IT security roles around Stockholm.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data-dir", ".")
	v.SetDefault("database", "jobsearcher.db")
	v.SetDefault("profile-file", "profile.yml")
	v.SetDefault("reference-file", "resume.md")
	v.SetDefault("stopwords-file", "stopwords-sv.txt")

	v.SetDefault("fetch.base-url", "https://jobsearch.api.jobtechdev.se/search")
	v.SetDefault("fetch.published-after", 1440)
	v.SetDefault("fetch.limit", 50)
	v.SetDefault("fetch.geography", []map[string]any{
		{"type": "region", "code": "01"},
		{"type": "municipality", "code": "1980"},
		{"type": "municipality", "code": "1880"},
		{"type": "municipality", "code": "0380"},
		{"type": "municipality", "code": "0480"},
		{"type": "municipality", "code": "0484"},
		{"type": "municipality", "code": "0580"},
		{"type": "municipality", "code": "0581"},
	})
	v.SetDefault("fetch.occupation-groups", []string{"2516", "1335", "2421", "2422"})
	v.SetDefault("fetch.freetext-queries", []string{
		"säkerhetssamordnare", "IT-säkerhet", "cybersäkerhet", "CISO",
		"SOC manager", "security operations", "informationssäkerhet",
	})
	v.SetDefault("fetch.include-remote", true)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.rate-per-second", 2.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.api-key-account", "jobtech")

	v.SetDefault("embedding.enabled", true)
	v.SetDefault("embedding.endpoint", "http://localhost:9090/v1/embeddings")
	v.SetDefault("embedding.model", "snowflake-arctic-embed-l-v2.0-q4_k_m.gguf")
	v.SetDefault("embedding.timeout", 30*time.Second)
	v.SetDefault("embedding.max-chars", 2000)
	v.SetDefault("embedding.batch-size", 32)
	v.SetDefault("embedding.token-account", "")

	v.SetDefault("rerank.top-n", 20)

	v.SetDefault("report.dir", "results")
	v.SetDefault("report.shortlist-size", 8)
	v.SetDefault("report.recent-window", 7*24*time.Hour)

	v.SetDefault("schedule.spec", "0 7 * * *")
	v.SetDefault("serve.addr", "127.0.0.1:38471")
}

// FromViper decodes v into a Config and checks it.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path resolves p against DataDir unless it is absolute.
func (c *Config) Path(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, "database is required")
	}
	if c.Rerank.TopN < 0 {
		errs = append(errs, "rerank.top-n must be >= 0")
	}
	if c.Fetch.Limit <= 0 {
		errs = append(errs, "fetch.limit must be > 0")
	}
	if c.Fetch.RatePerSecond <= 0 {
		errs = append(errs, "fetch.rate-per-second must be > 0")
	}
	if c.Embedding.Enabled {
		if strings.TrimSpace(c.Embedding.Endpoint) == "" {
			errs = append(errs, "embedding.endpoint is required when embedding.enabled=true")
		}
		if c.Embedding.Timeout <= 0 {
			errs = append(errs, "embedding.timeout must be > 0")
		}
		if c.Embedding.BatchSize <= 0 {
			errs = append(errs, "embedding.batch-size must be > 0")
		}
	}
	if c.Report.ShortlistSize < 0 {
		errs = append(errs, "report.shortlist-size must be >= 0")
	}

	if len(errs) > 0 {
		return &ConfigurationError{Problems: errs}
	}
	return nil
}
