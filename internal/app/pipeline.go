// Package app orchestrates one full batch pass: collect, validate, rebuild
// features, score, extract anomalies, compare, brief, and record the run.
// The pass is synchronous; each derived table is replaced wholesale so
// readers never observe a half-written window.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/leakradar/internal/aggregate"
	"github.com/sawpanic/leakradar/internal/alert"
	"github.com/sawpanic/leakradar/internal/anomaly"
	"github.com/sawpanic/leakradar/internal/backtest"
	"github.com/sawpanic/leakradar/internal/brief"
	"github.com/sawpanic/leakradar/internal/collect"
	"github.com/sawpanic/leakradar/internal/compare"
	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/metrics"
	"github.com/sawpanic/leakradar/internal/monitor"
	"github.com/sawpanic/leakradar/internal/narrative"
	"github.com/sawpanic/leakradar/internal/persistence"
	"github.com/sawpanic/leakradar/internal/scoring"
	"github.com/sawpanic/leakradar/internal/snapshot"
)

// Pipeline wires the stages over one store. Registry, cache, summarizer, and
// sink are optional; a nil registry runs compute-only, a nil cache skips the
// snapshot publish.
type Pipeline struct {
	cfg      *config.Config
	store    persistence.Store
	registry *collect.Registry
	cache    *snapshot.Cache
	sink     alert.Sink
	briefs   *brief.Generator
	codeSHA  string
}

func NewPipeline(cfg *config.Config, store persistence.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		sink:    alert.LogSink{},
		briefs:  brief.NewGenerator(nil),
		codeSHA: "unknown",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

func WithRegistry(r *collect.Registry) Option      { return func(p *Pipeline) { p.registry = r } }
func WithCache(c *snapshot.Cache) Option           { return func(p *Pipeline) { p.cache = c } }
func WithSink(s alert.Sink) Option                 { return func(p *Pipeline) { p.sink = s } }
func WithSummarizer(s brief.Summarizer) Option     { return func(p *Pipeline) { p.briefs = brief.NewGenerator(s) } }
func WithCodeSHA(sha string) Option                { return func(p *Pipeline) { p.codeSHA = sha } }

// Report summarizes one pass for the CLI and tests.
type Report struct {
	RunID          string
	Status         string
	Collectors     map[string]collect.Result
	FeatureRows    int
	ScoreRows      int
	Anomalies      []domain.Anomaly
	SevereCount    int
	BudgetExceeded bool
	StaleSources   []string
	Comparisons    []domain.ComparisonRow
	Backtest       backtest.Summary
	BriefCount     int
}

// Run executes one full pass. Upstream collector failures degrade to zero
// results; database failures abort with the run left in running state for
// the operator to inspect.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now().UTC()
	defer func() {
		metrics.RunDuration.Observe(time.Since(started).Seconds())
	}()

	if err := p.store.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	run := domain.Run{
		RunID:     uuid.NewString(),
		StartedAt: started,
		CodeSHA:   p.codeSHA,
		ConfigSHA: p.cfg.Hash(),
		Status:    domain.RunStatusRunning,
	}
	if err := p.store.Runs().Upsert(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	report := &Report{RunID: run.RunID}

	if p.registry != nil {
		report.Collectors = p.registry.RunAll(ctx, p.store.Events())
	}

	events, err := p.store.Events().LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	features := aggregate.New(p.cfg).Build(events, now)
	if err := p.store.Features().ReplaceAll(ctx, features); err != nil {
		return nil, err
	}
	report.FeatureRows = len(features)

	scores := scoring.Compute(features, p.cfg.MetricWeights)
	if err := p.store.Scores().ReplaceAll(ctx, scores); err != nil {
		return nil, err
	}
	report.ScoreRows = len(scores)

	report.Anomalies = anomaly.Extract(scores, run.RunID, p.cfg.AnomalyZ)
	if err := p.store.Anomalies().ReplaceRun(ctx, run.RunID, report.Anomalies); err != nil {
		return nil, err
	}
	metrics.AnomaliesFlagged.Set(float64(len(report.Anomalies)))

	narrativeRows, err := p.store.Narrative().LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	mediaZ := narrative.LatestZ(narrative.MediaDensity(narrativeRows, now))
	socialZ := narrative.LatestZ(narrative.SocialPulse(narrativeRows, now))

	report.Comparisons = compare.BuildIndices(p.cfg, features, mediaZ, socialZ)
	if len(report.Comparisons) > 0 {
		if err := p.store.Comparisons().ReplaceForDay(ctx, report.Comparisons[0].TS, report.Comparisons); err != nil {
			return nil, err
		}
	}

	topics := narrative.LatestTopics(narrativeRows, p.cfg.Sectors)
	briefs := p.briefs.Generate(ctx, report.Comparisons, scores, topics)
	if len(briefs) > 0 {
		if err := p.store.Briefs().ReplaceForDay(ctx, briefs[0].TS, briefs); err != nil {
			return nil, err
		}
	}
	report.BriefCount = len(briefs)

	lastFetch, err := p.store.Events().LastFetchBySource(ctx)
	if err != nil {
		return nil, err
	}
	health := monitor.CollectorHealth(lastFetch, now, p.cfg.SourceSilence())
	report.StaleSources = monitor.StaleSources(health)
	metrics.StaleSources.Set(float64(len(report.StaleSources)))

	severe := anomaly.Severe(report.Anomalies, p.cfg.SevereZ)
	report.SevereCount = len(severe)
	report.BudgetExceeded = monitor.SpikeBudgetExceeded(report.Anomalies, p.cfg.SevereZ, p.cfg.SevereSpikeBudget)
	report.Status = monitor.RunStatus(report.StaleSources, report.SevereCount, report.BudgetExceeded)

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = report.Status
	if err := p.store.Runs().Upsert(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run finish: %w", err)
	}

	allAnomalies, err := p.store.Anomalies().LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	report.Backtest = backtest.Evaluate(allAnomalies)
	if path, err := backtest.WriteSummary(report.Backtest, p.cfg.DataDir); err != nil {
		log.Warn().Err(err).Msg("failed to write backtest summary")
	} else {
		log.Debug().Str("path", path).Msg("backtest summary written")
	}

	p.publish(ctx, scores, report, health)
	p.alert(ctx, scores, report)

	log.Info().
		Str("run_id", run.RunID).
		Str("status", report.Status).
		Int("features", report.FeatureRows).
		Int("scores", report.ScoreRows).
		Int("anomalies", len(report.Anomalies)).
		Str("health", monitor.Summarize(health)).
		Msg("pipeline pass complete")
	return report, nil
}

// publish pushes latest snapshots into the read-side cache, best effort.
func (p *Pipeline) publish(ctx context.Context, scores []domain.ScoreRow, report *Report, health []domain.CollectorStatus) {
	if p.cache == nil {
		return
	}
	if err := p.cache.StoreScores(ctx, scoring.LatestDay(scores)); err != nil {
		log.Warn().Err(err).Msg("failed to cache scores snapshot")
	}
	if err := p.cache.StoreComparisons(ctx, report.Comparisons); err != nil {
		log.Warn().Err(err).Msg("failed to cache comparisons snapshot")
	}
	if err := p.cache.StoreHealth(ctx, health); err != nil {
		log.Warn().Err(err).Msg("failed to cache health snapshot")
	}
}

// alert sends the run's alert unless the spike budget tripped, which reads
// as systemic noise rather than signal.
func (p *Pipeline) alert(ctx context.Context, scores []domain.ScoreRow, report *Report) {
	if report.BudgetExceeded {
		log.Warn().Str("run_id", report.RunID).Msg("severe-spike budget exceeded, suppressing alerts")
		return
	}
	message := alert.Compose(scoring.LatestDay(scores), report.Anomalies, p.cfg.AlertScore, p.cfg.SevereZ)
	if message == "" {
		return
	}
	if err := p.sink.Send(ctx, message); err != nil {
		log.Warn().Err(err).Msg("failed to deliver alert")
	}
}
