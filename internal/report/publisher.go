package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

// FilePublisher writes <Dir>/YYYY-MM-DD-results.md with the top Shortlist
// entries. A later run on the same day replaces the file.
type FilePublisher struct {
	Dir       string
	Shortlist int
	Log       *zap.Logger
}

// FileName is the results file for day.
func FileName(day time.Time) string {
	return day.Format("2006-01-02") + "-results.md"
}

func (p FilePublisher) Publish(_ context.Context, ranked []domain.Ranked, meta domain.RunMetadata) (string, error) {
	if p.Shortlist > 0 && len(ranked) > p.Shortlist {
		ranked = ranked[:p.Shortlist]
	}

	var buf bytes.Buffer
	if err := Markdown(&buf, ranked, meta.EmbeddingAvailable, meta.StartedAt.Local()); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(p.Dir, FileName(meta.StartedAt.Local()))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}

	if p.Log != nil {
		p.Log.Info("results written", zap.String("path", path), zap.Int("rows", len(ranked)))
	}
	return path, nil
}
