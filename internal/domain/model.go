package domain

import (
	"time"
)

// Sector identifiers tracked by the radar. The canonical list lives in
// config; these are the defaults shipped with the repo.
const (
	SectorAI      = "ai"
	SectorBiotech = "biotech"
	SectorClimate = "climate"
	SectorCreator = "creator"
)

// Raw event metrics accepted by the validator.
const (
	MetricNewPapers        = "new_papers"
	MetricRecruitingTrials = "recruiting_trials"
	MetricJobCount         = "job_count"
	MetricStars            = "stars"
	MetricReleases         = "releases"
	MetricGrants           = "grants"
)

// Feature column names. These are also the keys of the metric weight map and
// of the components JSON stored on each score row.
const (
	FeatureNewPapers7d           = "new_papers_7d"
	FeatureNewPapers30d          = "new_papers_30d"
	FeatureRecruitingTrials30d   = "recruiting_trials_30d"
	FeatureJobsKeywordCount      = "jobs_keyword_count"
	FeatureGithubStars30d        = "github_stars_30d"
	FeatureGrants90d             = "grants_90d"
	FeatureConsensusDisagreement = "consensus_disagreement"
)

// WeightedFeatures is the canonical ordering of the scored feature columns.
// Iteration order matters for byte-for-byte reproducible components JSON.
var WeightedFeatures = []string{
	FeatureNewPapers7d,
	FeatureRecruitingTrials30d,
	FeatureJobsKeywordCount,
	FeatureGithubStars30d,
	FeatureGrants90d,
}

// AllowedMetrics is the closed set of raw event metrics. Anything else is
// schema drift from a collector and gets quarantined.
var AllowedMetrics = map[string]bool{
	MetricNewPapers:        true,
	MetricRecruitingTrials: true,
	MetricJobCount:         true,
	MetricStars:            true,
	MetricReleases:         true,
	MetricGrants:           true,
}

// Event is one validated atomic observation in the event log.
type Event struct {
	ID           int64     `db:"id"`
	TS           time.Time `db:"ts"`
	Source       string    `db:"source"`
	Sector       string    `db:"sector"`
	Entity       string    `db:"entity"`
	Metric       string    `db:"metric"`
	Value        float64   `db:"value"`
	Payload      []byte    `db:"payload"`
	SourceURL    string    `db:"source_url"`
	FetchedAt    time.Time `db:"fetched_at"`
	ParseVersion string    `db:"parse_version"`
	Checksum     string    `db:"checksum"`
	License      string    `db:"license"`
	Confidence   *float64  `db:"confidence"`
}

// QuarantinedEvent is an event that failed validation, preserved with the
// rejection reason for audit. Never silently dropped, never promoted.
type QuarantinedEvent struct {
	Event
	Error string `db:"error"`
}

// FeatureRow is one dense (day, sector) cell of the feature matrix.
// ConfidenceMean travels with the row in memory and is persisted on the
// derived score row, not on the features table.
type FeatureRow struct {
	TS                    time.Time
	Sector                string
	NewPapers7d           float64
	NewPapers30d          float64
	RecruitingTrials30d   float64
	JobsKeywordCount      float64
	GithubStars30d        float64
	Grants90d             float64
	ConsensusDisagreement float64
	ConfidenceMean        float64
}

// Feature returns the named weighted feature column value.
func (r FeatureRow) Feature(name string) float64 {
	switch name {
	case FeatureNewPapers7d:
		return r.NewPapers7d
	case FeatureNewPapers30d:
		return r.NewPapers30d
	case FeatureRecruitingTrials30d:
		return r.RecruitingTrials30d
	case FeatureJobsKeywordCount:
		return r.JobsKeywordCount
	case FeatureGithubStars30d:
		return r.GithubStars30d
	case FeatureGrants90d:
		return r.Grants90d
	case FeatureConsensusDisagreement:
		return r.ConsensusDisagreement
	default:
		return 0
	}
}

// ScoreRow is the composite signal for one (day, sector).
type ScoreRow struct {
	TS             time.Time
	Sector         string
	Score          float64
	Components     map[string]float64
	MeanConfidence float64
}

// ConsensusRecord is the triangulation result for one (day, sector, metric)
// with enough independent sources. Recomputed each pass, never persisted on
// its own; only the sector-day disagreement rollup lands in the feature table.
type ConsensusRecord struct {
	TS             time.Time
	Sector         string
	Metric         string
	ConsensusValue float64
	Disagreement   float64
	SourceCount    int
}

// Anomaly review verdicts set by a human operator.
const (
	VerdictConfirm = "confirm"
	VerdictNoise   = "noise"
	VerdictBug     = "bug"
)

// Anomaly is one score component whose |z| crossed the anomaly threshold.
// Append-only per run; VerifiedStatus is the only field ever mutated, and
// only by the explicit review action.
type Anomaly struct {
	ID             int64     `db:"id"`
	TS             time.Time `db:"ts"`
	RunID          string    `db:"run_id"`
	Sector         string    `db:"sector"`
	Metric         string    `db:"metric"`
	ZScore         float64   `db:"zscore"`
	Confidence     float64   `db:"confidence"`
	VerifiedStatus *string   `db:"verified_status"`
}

// Severe reports whether the anomaly crosses the severe threshold.
func (a Anomaly) Severe(severeZ float64) bool {
	z := a.ZScore
	if z < 0 {
		z = -z
	}
	return z >= severeZ
}

// ComparisonRow is the hype-vs-reality snapshot for one (day, sector).
// Indices are on a 0-100 display scale.
type ComparisonRow struct {
	TS           time.Time `db:"ts"`
	Sector       string    `db:"sector"`
	HypeIndex    float64   `db:"hype_index"`
	RealityIndex float64   `db:"reality_index"`
	Gap          float64   `db:"gap"`
}

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusOK      = "ok"
	RunStatusWarn    = "warn"
)

// Run records one pipeline execution, stamped with code and config hashes so
// silent drift between runs is detectable.
type Run struct {
	RunID      string     `db:"run_id"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
	CodeSHA    string     `db:"code_sha"`
	ConfigSHA  string     `db:"config_sha"`
	Status     string     `db:"status"`
}

// Narrative event metrics produced by the news/social aggregates.
const (
	MetricMediaHits      = "media_hits"
	MetricSocialMentions = "social_mentions"
)

// NarrativeEvent is a media/social observation feeding the hype side of the
// comparator. Kept in its own table, outside the validated event log.
type NarrativeEvent struct {
	ID         int64     `db:"id"`
	TS         time.Time `db:"ts"`
	Source     string    `db:"source"`
	Sector     string    `db:"sector"`
	Metric     string    `db:"metric"`
	Value      float64   `db:"value"`
	Payload    []byte    `db:"payload"`
	SourceURL  string    `db:"source_url"`
	Confidence *float64  `db:"confidence"`
}

// Brief is a generated per-sector narrative summary.
type Brief struct {
	TS      time.Time
	Sector  string
	Title   string
	Summary string
	Sources []string
}

// CollectorStatus is the health monitor's view of one source.
type CollectorStatus struct {
	Source   string
	LastSeen *time.Time
	Stale    bool
}

// Day floors a timestamp to its UTC calendar day.
func Day(ts time.Time) time.Time {
	return ts.UTC().Truncate(24 * time.Hour)
}
