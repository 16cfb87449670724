package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

const adColumns = `
id, title, company, description, url, occupation_group, employment_type,
municipality, region, application_deadline, published_at, query_source,
keyword_score, embedding_score, final_score, tags, first_seen, last_seen`

// rankOrder matches rank.Rank; published_at sorts as text.
const rankOrder = `ORDER BY final_score DESC, keyword_score DESC, published_at DESC, id ASC`

// QueryRecent returns ads last seen within window before now, best first.
func (d *DB) QueryRecent(ctx context.Context, window time.Duration, now time.Time) ([]domain.Ranked, error) {
	cutoff := formatTime(now.Add(-window))
	rows, err := d.Pool.QueryContext(ctx, `
SELECT`+adColumns+`
FROM ads
WHERE last_seen >= ?
`+rankOrder+`;`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ranked
	for rows.Next() {
		r, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunResults returns the ads observed in runID with the scores they got in
// that run, best first.
func (d *DB) RunResults(ctx context.Context, runID string) ([]domain.Ranked, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT a.id, a.title, a.company, a.description, a.url, a.occupation_group, a.employment_type,
  a.municipality, a.region, a.application_deadline, a.published_at, a.query_source,
  o.keyword_score, o.embedding_score, o.final_score, a.tags, a.first_seen, a.last_seen
FROM ad_observations o
JOIN ads a ON a.id = o.ad_id
WHERE o.run_id = ?
ORDER BY o.final_score DESC, o.keyword_score DESC, a.published_at DESC, a.id ASC;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Ranked
	for rows.Next() {
		r, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) GetAd(ctx context.Context, id string) (domain.Ranked, error) {
	row := d.Pool.QueryRowContext(ctx, `SELECT`+adColumns+` FROM ads WHERE id = ?;`, id)
	return scanAd(row)
}

// History lists every run's score for one ad, oldest first.
func (d *DB) History(ctx context.Context, id string) ([]domain.Observation, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT ad_id, run_id, keyword_score, embedding_score, final_score, observed_at
FROM ad_observations
WHERE ad_id = ?
ORDER BY observed_at ASC, run_id ASC;`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		var emb sql.NullFloat64
		var observed string
		if err := rows.Scan(&o.AdID, &o.RunID, &o.KeywordScore, &emb, &o.FinalScore, &observed); err != nil {
			return nil, err
		}
		o.EmbeddingScore = floatPtr(emb)
		o.ObservedAt = parseTime(observed)
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountAds returns the number of distinct ads ever stored.
func (d *DB) CountAds(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM ads;`).Scan(&n)
	return n, err
}

func scanAd(r scanner) (domain.Ranked, error) {
	var out domain.Ranked
	var published, tagsJSON, first, last string
	var emb sql.NullFloat64

	a := &out.Ad
	s := &out.Score
	err := r.Scan(
		&a.ID, &a.Title, &a.Company, &a.Description, &a.URL, &a.OccupationGroup, &a.EmploymentType,
		&a.Municipality, &a.Region, &a.ApplicationDeadline, &published, &a.QuerySource,
		&s.KeywordScore, &emb, &s.FinalScore, &tagsJSON, &first, &last,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, ErrNotFound
		}
		return out, err
	}

	a.PublishedAt = parseTime(published)
	s.AdID = a.ID
	s.EmbeddingScore = floatPtr(emb)
	s.FirstSeen = parseTime(first)
	s.LastSeen = parseTime(last)
	_ = json.Unmarshal([]byte(tagsJSON), &s.Tags)
	return out, nil
}
