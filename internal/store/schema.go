package store

import (
	"database/sql"
	"fmt"
)

// migrations[i] brings the schema from user_version i to i+1. Append only.
var migrations = []string{
	// 1: ads, per-run observations, runs
	`
CREATE TABLE ads (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  occupation_group TEXT NOT NULL DEFAULT '',
  employment_type TEXT NOT NULL DEFAULT '',
  municipality TEXT NOT NULL DEFAULT '',
  region TEXT NOT NULL DEFAULT '',
  application_deadline TEXT NOT NULL DEFAULT '',
  published_at TEXT NOT NULL DEFAULT '',
  query_source TEXT NOT NULL DEFAULT '',
  keyword_score INTEGER NOT NULL DEFAULT 0,
  embedding_score REAL,
  final_score REAL NOT NULL DEFAULT 0,
  tags TEXT NOT NULL DEFAULT '[]',
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL,
  last_run_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE ad_observations (
  ad_id TEXT NOT NULL REFERENCES ads(id),
  run_id TEXT NOT NULL,
  keyword_score INTEGER NOT NULL,
  embedding_score REAL,
  final_score REAL NOT NULL,
  observed_at TEXT NOT NULL,
  PRIMARY KEY (ad_id, run_id)
);

CREATE TABLE runs (
  run_id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL DEFAULT '',
  ads_fetched INTEGER NOT NULL DEFAULT 0,
  ads_scored INTEGER NOT NULL DEFAULT 0,
  ads_new INTEGER NOT NULL DEFAULT 0,
  embedding_available INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL,
  error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_ads_last_seen ON ads(last_seen);
CREATE INDEX idx_runs_started_at ON runs(started_at);
`,
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int { return len(migrations) }

// Migrate applies the pending migrations in one transaction. A database
// newer than this binary is refused.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v > len(migrations) {
		return fmt.Errorf("database schema v%d is newer than this build (v%d)", v, len(migrations))
	}
	if v == len(migrations) {
		return nil
	}

	for i := v; i < len(migrations); i++ {
		if _, err := tx.Exec(migrations[i]); err != nil {
			return fmt.Errorf("schema v%d: %w", i+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, len(migrations))); err != nil {
		return err
	}
	return tx.Commit()
}
