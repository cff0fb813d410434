// Package postgres implements the persistence interfaces over PostgreSQL.
// Every derived-table write is a delete-then-insert inside one transaction,
// so a crash mid-write leaves either the old or the new complete table.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/leakradar/internal/persistence"
)

// Store implements persistence.Store over one sqlx handle.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to the database and pings it.
func Open(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db, timeout: timeout}, nil
}

// NewWithDB wraps an existing handle. Used by tests with sqlmock.
func NewWithDB(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) Events() persistence.EventsRepo           { return &eventsRepo{s} }
func (s *Store) Features() persistence.FeaturesRepo       { return &featuresRepo{s} }
func (s *Store) Scores() persistence.ScoresRepo           { return &scoresRepo{s} }
func (s *Store) Anomalies() persistence.AnomaliesRepo     { return &anomaliesRepo{s} }
func (s *Store) Comparisons() persistence.ComparisonsRepo { return &comparisonsRepo{s} }
func (s *Store) Runs() persistence.RunsRepo               { return &runsRepo{s} }
func (s *Store) Narrative() persistence.NarrativeRepo     { return &narrativeRepo{s} }
func (s *Store) Briefs() persistence.BriefsRepo           { return &briefsRepo{s} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureSchema creates missing tables and indexes. Statements are idempotent
// so startup can always run it.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		source TEXT NOT NULL,
		sector TEXT NOT NULL,
		entity TEXT,
		metric TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		payload BYTEA,
		source_url TEXT,
		fetched_at TIMESTAMPTZ,
		parse_version TEXT,
		checksum TEXT,
		license TEXT,
		confidence DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_ts ON events (ts)`,
	`CREATE INDEX IF NOT EXISTS idx_events_source ON events (source)`,
	`CREATE TABLE IF NOT EXISTS events_quarantine (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ,
		source TEXT,
		sector TEXT,
		entity TEXT,
		metric TEXT,
		value DOUBLE PRECISION,
		payload BYTEA,
		source_url TEXT,
		fetched_at TIMESTAMPTZ,
		parse_version TEXT,
		checksum TEXT,
		license TEXT,
		confidence DOUBLE PRECISION,
		error TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS features (
		ts TIMESTAMPTZ NOT NULL,
		sector TEXT NOT NULL,
		new_papers_7d DOUBLE PRECISION NOT NULL DEFAULT 0,
		new_papers_30d DOUBLE PRECISION NOT NULL DEFAULT 0,
		recruiting_trials_30d DOUBLE PRECISION NOT NULL DEFAULT 0,
		jobs_keyword_count DOUBLE PRECISION NOT NULL DEFAULT 0,
		github_stars_30d DOUBLE PRECISION NOT NULL DEFAULT 0,
		grants_90d DOUBLE PRECISION NOT NULL DEFAULT 0,
		consensus_disagreement DOUBLE PRECISION NOT NULL DEFAULT 0,
		confidence_mean DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (ts, sector)
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		ts TIMESTAMPTZ NOT NULL,
		sector TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		components JSONB NOT NULL,
		mean_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (ts, sector)
	)`,
	`CREATE TABLE IF NOT EXISTS anomalies (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		run_id TEXT NOT NULL,
		sector TEXT NOT NULL,
		metric TEXT NOT NULL,
		zscore DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		verified_status TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies (run_id)`,
	`CREATE TABLE IF NOT EXISTS comparisons (
		ts TIMESTAMPTZ NOT NULL,
		sector TEXT NOT NULL,
		hype_index DOUBLE PRECISION NOT NULL,
		reality_index DOUBLE PRECISION NOT NULL,
		gap DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (ts, sector)
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		code_sha TEXT,
		config_sha TEXT,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS narrative_events (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		source TEXT,
		sector TEXT NOT NULL,
		metric TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		payload BYTEA,
		source_url TEXT,
		confidence DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS briefs (
		ts TIMESTAMPTZ NOT NULL,
		sector TEXT NOT NULL,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		sources JSONB,
		PRIMARY KEY (ts, sector)
	)`,
}
