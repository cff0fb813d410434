package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// EventsRepo owns the append-only event log and its quarantine sibling. The
// log is the single source of truth; every derived table is recomputable
// from it.
type EventsRepo interface {
	// Insert appends one validated event to the log.
	Insert(ctx context.Context, event domain.Event) error

	// InsertQuarantined records a rejected row with its reason. Rejected
	// rows are never silently dropped and never promoted.
	InsertQuarantined(ctx context.Context, event domain.QuarantinedEvent) error

	// LoadAll returns the full validated event log.
	LoadAll(ctx context.Context) ([]domain.Event, error)

	// LastFetchBySource returns each source's most recent fetched_at, for
	// the collector health monitor.
	LastFetchBySource(ctx context.Context) (map[string]time.Time, error)
}

// FeaturesRepo owns the derived feature matrix, rewritten wholesale each run.
type FeaturesRepo interface {
	// ReplaceAll swaps in a fresh feature table atomically: a reader sees
	// the prior table or the new one, never a mix.
	ReplaceAll(ctx context.Context, rows []domain.FeatureRow) error

	LoadAll(ctx context.Context) ([]domain.FeatureRow, error)
}

// ScoresRepo owns the derived score table, rewritten wholesale each run.
type ScoresRepo interface {
	ReplaceAll(ctx context.Context, rows []domain.ScoreRow) error
	LoadAll(ctx context.Context) ([]domain.ScoreRow, error)
}

// AnomaliesRepo owns the append-only anomaly audit trail.
type AnomaliesRepo interface {
	// ReplaceRun atomically replaces the anomalies recorded under one run
	// id. Rows from other runs are never touched.
	ReplaceRun(ctx context.Context, runID string, anomalies []domain.Anomaly) error

	LoadAll(ctx context.Context) ([]domain.Anomaly, error)

	// Review sets verified_status for one anomaly. This is the only
	// permitted mutation of an existing anomaly row.
	Review(ctx context.Context, id int64, status string) error
}

// ComparisonsRepo owns the hype-vs-reality snapshots, one per day per sector.
type ComparisonsRepo interface {
	// ReplaceForDay deletes and reinserts the rows for one timestamp so
	// there is exactly one comparison snapshot per day per sector.
	ReplaceForDay(ctx context.Context, ts time.Time, rows []domain.ComparisonRow) error

	LoadAll(ctx context.Context) ([]domain.ComparisonRow, error)
}

// RunsRepo records pipeline executions.
type RunsRepo interface {
	Upsert(ctx context.Context, run domain.Run) error
}

// NarrativeRepo owns the media/social event stream feeding the comparator.
type NarrativeRepo interface {
	InsertBatch(ctx context.Context, rows []domain.NarrativeEvent) error
	LoadAll(ctx context.Context) ([]domain.NarrativeEvent, error)
}

// BriefsRepo owns generated founder briefs.
type BriefsRepo interface {
	ReplaceForDay(ctx context.Context, ts time.Time, briefs []domain.Brief) error
}

// Store bundles every repository over one database handle.
type Store interface {
	Events() EventsRepo
	Features() FeaturesRepo
	Scores() ScoresRepo
	Anomalies() AnomaliesRepo
	Comparisons() ComparisonsRepo
	Runs() RunsRepo
	Narrative() NarrativeRepo
	Briefs() BriefsRepo

	// EnsureSchema creates missing tables and indexes.
	EnsureSchema(ctx context.Context) error
	Close() error
}
