package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/mlowdi/jobsearcher/internal/domain"
)

// Session is the write boundary of one run: an exclusive file lock plus one
// transaction. Either every write in it is committed or none is.
type Session struct {
	tx    *sql.Tx
	lock  *flock.Flock
	runID string
	now   time.Time
	done  bool
}

// Begin locks the database for runID and opens its transaction. now is the
// timestamp recorded as first_seen/last_seen for every ad in the session.
// Callers must Close the session.
func (d *DB) Begin(ctx context.Context, runID string, now time.Time) (*Session, error) {
	lock := flock.New(d.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("begin: %w", err)
	}

	return &Session{tx: tx, lock: lock, runID: runID, now: now.UTC()}, nil
}

// Upserted is the stored state of an ad after Upsert.
type Upserted struct {
	// Inserted is true when the ad was new to the store.
	Inserted  bool
	FirstSeen time.Time
	LastSeen  time.Time
}

// Upsert inserts ad or updates it in place. first_seen is only written on
// insert; the returned FirstSeen is the stored value either way.
func (s *Session) Upsert(ctx context.Context, ad domain.JobAd, score domain.ScoreRecord) (Upserted, error) {
	if s.done {
		return Upserted{}, ErrSessionDone
	}
	if ad.ID == "" {
		return Upserted{}, writeErr("upsert", errors.New("ad has no id"))
	}

	res := Upserted{FirstSeen: s.now, LastSeen: s.now}
	var first string
	err := s.tx.QueryRowContext(ctx, `SELECT first_seen FROM ads WHERE id = ?;`, ad.ID).Scan(&first)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res.Inserted = true
	case err != nil:
		return Upserted{}, writeErr("upsert", err)
	default:
		res.FirstSeen = parseTime(first)
	}

	tags := score.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsB, _ := json.Marshal(tags)
	now := formatTime(s.now)
	emb := nullFloat(score.EmbeddingScore)

	_, err = s.tx.ExecContext(ctx, `
INSERT INTO ads (
  id, title, company, description, url, occupation_group, employment_type,
  municipality, region, application_deadline, published_at, query_source,
  keyword_score, embedding_score, final_score, tags, first_seen, last_seen, last_run_id
) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  title = excluded.title,
  company = excluded.company,
  description = excluded.description,
  url = excluded.url,
  occupation_group = excluded.occupation_group,
  employment_type = excluded.employment_type,
  municipality = excluded.municipality,
  region = excluded.region,
  application_deadline = excluded.application_deadline,
  published_at = excluded.published_at,
  keyword_score = excluded.keyword_score,
  embedding_score = excluded.embedding_score,
  final_score = excluded.final_score,
  tags = excluded.tags,
  last_seen = excluded.last_seen,
  last_run_id = excluded.last_run_id;`,
		ad.ID, ad.Title, ad.Company, ad.Description, ad.URL, ad.OccupationGroup, ad.EmploymentType,
		ad.Municipality, ad.Region, ad.ApplicationDeadline, formatTime(ad.PublishedAt), ad.QuerySource,
		score.KeywordScore, emb, score.FinalScore, string(tagsB), now, now, s.runID,
	)
	if err != nil {
		return Upserted{}, writeErr("upsert", err)
	}

	_, err = s.tx.ExecContext(ctx, `
INSERT INTO ad_observations (ad_id, run_id, keyword_score, embedding_score, final_score, observed_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT(ad_id, run_id) DO UPDATE SET
  keyword_score = excluded.keyword_score,
  embedding_score = excluded.embedding_score,
  final_score = excluded.final_score,
  observed_at = excluded.observed_at;`,
		ad.ID, s.runID, score.KeywordScore, emb, score.FinalScore, now,
	)
	if err != nil {
		return Upserted{}, writeErr("observe", err)
	}

	return res, nil
}

// LogRun appends meta inside the session's transaction.
func (s *Session) LogRun(ctx context.Context, meta domain.RunMetadata) error {
	if s.done {
		return ErrSessionDone
	}
	return writeErr("log run", insertRun(ctx, s.tx, meta))
}

func (s *Session) Commit() error {
	if s.done {
		return ErrSessionDone
	}
	s.done = true
	defer s.unlock()
	return writeErr("commit", s.tx.Commit())
}

// Close rolls back an uncommitted session and releases the lock. It is safe
// to call after Commit.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.unlock()
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (s *Session) unlock() {
	_ = s.lock.Unlock()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRun(ctx context.Context, db execer, m domain.RunMetadata) error {
	if m.RunID == "" {
		return errors.New("run has no id")
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO runs (run_id, started_at, finished_at, ads_fetched, ads_scored, ads_new, embedding_available, status, error)
VALUES (?,?,?,?,?,?,?,?,?);`,
		m.RunID, formatTime(m.StartedAt), formatTime(m.FinishedAt), m.AdsFetched, m.AdsScored, m.AdsNew,
		m.EmbeddingAvailable, string(m.Status), m.Error,
	)
	return err
}
