package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

// LogRun appends meta outside any session. Used to record a failed run after
// its session was rolled back.
func (d *DB) LogRun(ctx context.Context, meta domain.RunMetadata) error {
	return writeErr("log run", insertRun(ctx, d.Pool, meta))
}

// ListRuns returns the newest runs first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]domain.RunMetadata, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT run_id, started_at, finished_at, ads_fetched, ads_scored, ads_new, embedding_available, status, error
FROM runs
ORDER BY started_at DESC, run_id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunMetadata
	for rows.Next() {
		m, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run or ErrNotFound.
func (d *DB) LatestRun(ctx context.Context) (domain.RunMetadata, error) {
	runs, err := d.ListRuns(ctx, 1)
	if err != nil {
		return domain.RunMetadata{}, err
	}
	if len(runs) == 0 {
		return domain.RunMetadata{}, ErrNotFound
	}
	return runs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(r scanner) (domain.RunMetadata, error) {
	var m domain.RunMetadata
	var started, finished, status string
	if err := r.Scan(&m.RunID, &started, &finished, &m.AdsFetched, &m.AdsScored, &m.AdsNew,
		&m.EmbeddingAvailable, &status, &m.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, ErrNotFound
		}
		return m, err
	}
	m.StartedAt = parseTime(started)
	m.FinishedAt = parseTime(finished)
	m.Status = domain.RunStatus(status)
	return m, nil
}
