package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

func ranked(id, title string, kw int, sim *float64) domain.Ranked {
	return domain.Ranked{
		Ad:    domain.JobAd{ID: id, Title: title, Company: "Acme | Co", URL: "https://x/" + id},
		Score: domain.ScoreRecord{AdID: id, KeywordScore: kw, EmbeddingScore: sim, FinalScore: float64(kw)},
	}
}

func TestMarkdown(t *testing.T) {
	sim := 0.8123
	var buf bytes.Buffer
	day := time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

	err := Markdown(&buf, []domain.Ranked{
		ranked("1", "SOC | lead", 9, &sim),
		ranked("2", "Analyst", 4, nil),
	}, true, day)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Job search results 2026-03-02\n"))
	assert.Contains(t, out, "combined keyword + embedding")
	assert.Contains(t, out, `| 1 | SOC \| lead | Acme \| Co | 9 | 0.812 | https://x/1 |`)
	assert.Contains(t, out, "| 2 | Analyst | Acme \\| Co | 4 | — | https://x/2 |")
}

func TestMarkdownKeywordOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Markdown(&buf, nil, false, time.Now()))
	assert.Contains(t, buf.String(), "keyword score only")
	assert.Contains(t, buf.String(), "| Rank | Headline | Company | KW | Sim | URL |")
}

func TestFilePublisherTrimsToShortlist(t *testing.T) {
	dir := t.TempDir()
	p := FilePublisher{Dir: filepath.Join(dir, "results"), Shortlist: 1}
	meta := domain.RunMetadata{StartedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}

	path, err := p.Publish(context.Background(), []domain.Ranked{
		ranked("1", "first", 5, nil),
		ranked("2", "second", 3, nil),
	}, meta)
	require.NoError(t, err)
	assert.Equal(t, FileName(meta.StartedAt.Local()), filepath.Base(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "first")
	assert.NotContains(t, string(b), "second")
}
