// Package aggregate turns the validated event log into the dense daily
// per-sector feature matrix. The build is a pure total function of its input:
// it cannot partially fail, and an empty log still yields a full grid of
// zeros so downstream stages never branch on "no data" vs "zero activity".
package aggregate

import (
	"time"

	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/triangulate"
)

// Builder derives feature rows for the configured trailing window.
type Builder struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

type cell struct {
	day    int
	sector string
}

type metricCell struct {
	cell
	metric string
}

// Build returns one FeatureRow per (day, sector) over the trailing window
// ending at the latest event day, or at now when the log is empty. Rows are
// ordered day-major with sectors in config order, and the whole table is
// meant to replace the previous one wholesale.
func (b *Builder) Build(events []domain.Event, now time.Time) []domain.FeatureRow {
	window := b.cfg.WindowDays

	end := domain.Day(now)
	if len(events) > 0 {
		end = domain.Day(events[0].TS)
		for _, e := range events[1:] {
			if d := domain.Day(e.TS); d.After(end) {
				end = d
			}
		}
	}

	days := make([]time.Time, window)
	dayIndex := make(map[time.Time]int, window)
	for i := range days {
		d := end.AddDate(0, 0, i-window+1)
		days[i] = d
		dayIndex[d] = i
	}

	// Per-day per-sector per-metric sums, plus star levels kept separately
	// because stars track a level (mean), not a count (sum).
	sums := make(map[metricCell]float64)
	starSum := make(map[cell]float64)
	starN := make(map[cell]int)
	confSum := make(map[metricCell]float64)
	confN := make(map[metricCell]int)

	for _, e := range events {
		i, ok := dayIndex[domain.Day(e.TS)]
		if !ok {
			continue
		}
		c := cell{day: i, sector: e.Sector}
		mc := metricCell{cell: c, metric: e.Metric}
		sums[mc] += e.Value
		if e.Metric == domain.MetricStars {
			starSum[c] += e.Value
			starN[c]++
		}
		if e.Confidence != nil {
			confSum[mc] += *e.Confidence
			confN[mc]++
		}
	}

	rows := make([]domain.FeatureRow, 0, window*len(b.cfg.Sectors))
	rowAt := make(map[cell]int, window*len(b.cfg.Sectors))
	for i, d := range days {
		for _, sector := range b.cfg.Sectors {
			rowAt[cell{day: i, sector: sector}] = len(rows)
			rows = append(rows, domain.FeatureRow{TS: d, Sector: sector})
		}
	}

	dailyOf := func(sector, metric string) []float64 {
		series := make([]float64, window)
		for i := range series {
			series[i] = sums[metricCell{cell: cell{day: i, sector: sector}, metric: metric}]
		}
		return series
	}

	for _, sector := range b.cfg.Sectors {
		papers := dailyOf(sector, domain.MetricNewPapers)
		trials := dailyOf(sector, domain.MetricRecruitingTrials)
		grants := dailyOf(sector, domain.MetricGrants)
		jobs := dailyOf(sector, domain.MetricJobCount)

		papers7 := rollingSum(papers, 7)
		papers30 := rollingSum(papers, 30)
		trials30 := rollingSum(trials, 30)
		grants90 := rollingSum(grants, 90)

		// GitHub stars are a level; a 30-day difference approximates
		// growth instead of re-counting the installed base.
		levels := make([]float64, window)
		for i := range levels {
			c := cell{day: i, sector: sector}
			if n := starN[c]; n > 0 {
				levels[i] = starSum[c] / float64(n)
			}
		}
		starsDelta := diff(levels, 30)

		for i := range days {
			c := cell{day: i, sector: sector}
			row := &rows[rowAt[c]]
			row.NewPapers7d = papers7[i]
			row.NewPapers30d = papers30[i]
			row.RecruitingTrials30d = trials30[i]
			row.JobsKeywordCount = jobs[i]
			row.GithubStars30d = starsDelta[i]
			row.Grants90d = grants90[i]
			row.ConfidenceMean = confidenceMean(confSum, confN, c)
		}
	}

	consensus := triangulate.Consensus(events, b.cfg.TriangulationMinSources)
	for k, d := range triangulate.DisagreementBySector(consensus) {
		i, ok := dayIndex[k.TS]
		if !ok {
			continue
		}
		if at, ok := rowAt[cell{day: i, sector: k.Sector}]; ok {
			rows[at].ConsensusDisagreement = d
		}
	}

	return rows
}

// rollingSum applies a trailing sum of the given window length with partial
// windows at the start of the series.
func rollingSum(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	var running float64
	for i, v := range series {
		running += v
		if i >= window {
			running -= series[i-window]
		}
		out[i] = running
	}
	return out
}

// diff returns series[i] - series[i-lag], zero for the first lag positions.
func diff(series []float64, lag int) []float64 {
	out := make([]float64, len(series))
	for i := lag; i < len(series); i++ {
		out[i] = series[i] - series[i-lag]
	}
	return out
}

// confidenceMean averages the per-metric confidence means for one sector-day.
// Metrics that carried no confidence at all are excluded rather than counted
// as zero; a sector-day with no confidences anywhere reads 0.
func confidenceMean(confSum map[metricCell]float64, confN map[metricCell]int, c cell) float64 {
	var total float64
	var metrics int
	for k, n := range confN {
		if k.cell != c || n == 0 {
			continue
		}
		total += confSum[k] / float64(n)
		metrics++
	}
	if metrics == 0 {
		return 0
	}
	return total / float64(metrics)
}
