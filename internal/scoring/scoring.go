// Package scoring standardizes each feature column against the sector's own
// history and blends the z-scores into one weighted composite per day.
package scoring

import (
	"math"
	"sort"

	"github.com/sawpanic/leakradar/internal/domain"
)

// Compute returns one ScoreRow per input feature row. Each sector is scored
// independently: a column's z-scores are taken against that sector's full
// series in the window, so a quiet sector is never judged by a loud one's
// baseline. Re-running over an unchanged feature table is byte-for-byte
// reproducible.
func Compute(features []domain.FeatureRow, weights map[string]float64) []domain.ScoreRow {
	metrics := make([]string, 0, len(weights))
	for name := range weights {
		metrics = append(metrics, name)
	}
	sort.Strings(metrics)

	bySector := make(map[string][]domain.FeatureRow)
	var sectors []string
	for _, row := range features {
		if _, seen := bySector[row.Sector]; !seen {
			sectors = append(sectors, row.Sector)
		}
		bySector[row.Sector] = append(bySector[row.Sector], row)
	}

	var out []domain.ScoreRow
	for _, sector := range sectors {
		rows := bySector[sector]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].TS.Before(rows[j].TS) })

		zByMetric := make(map[string][]float64, len(metrics))
		for _, metric := range metrics {
			series := make([]float64, len(rows))
			for i, row := range rows {
				series[i] = row.Feature(metric)
			}
			zByMetric[metric] = zscores(series)
		}

		for i, row := range rows {
			components := make(map[string]float64, len(metrics))
			var score float64
			for _, metric := range metrics {
				z := zByMetric[metric][i]
				components[metric] = z
				score += weights[metric] * z
			}
			out = append(out, domain.ScoreRow{
				TS:             row.TS,
				Sector:         sector,
				Score:          score,
				Components:     components,
				MeanConfidence: row.ConfidenceMean,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TS.Equal(out[j].TS) {
			return out[i].TS.Before(out[j].TS)
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

// zscores standardizes a series against its own mean and population standard
// deviation. A flat or single-point series yields all zeros rather than
// manufactured signal.
func zscores(series []float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}

	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(len(series))

	var variance float64
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(series))
	std := math.Sqrt(variance)

	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, v := range series {
		out[i] = (v - mean) / std
	}
	return out
}

// LatestDay filters score rows down to the most recent day present.
func LatestDay(scores []domain.ScoreRow) []domain.ScoreRow {
	if len(scores) == 0 {
		return nil
	}
	latest := scores[0].TS
	for _, s := range scores[1:] {
		if s.TS.After(latest) {
			latest = s.TS
		}
	}
	var out []domain.ScoreRow
	for _, s := range scores {
		if s.TS.Equal(latest) {
			out = append(out, s)
		}
	}
	return out
}
