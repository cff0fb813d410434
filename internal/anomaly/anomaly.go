// Package anomaly flags score components whose deviation crossed the
// configured threshold, tied to the run that produced them.
package anomaly

import (
	"math"
	"sort"

	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/scoring"
)

// Extract emits one Anomaly per (sector, metric) component on the latest
// scored day with |z| >= threshold. VerifiedStatus starts unset; only a
// human review ever changes it.
func Extract(scores []domain.ScoreRow, runID string, threshold float64) []domain.Anomaly {
	var out []domain.Anomaly
	for _, row := range scoring.LatestDay(scores) {
		metrics := make([]string, 0, len(row.Components))
		for metric := range row.Components {
			metrics = append(metrics, metric)
		}
		sort.Strings(metrics)

		for _, metric := range metrics {
			z := row.Components[metric]
			if math.Abs(z) < threshold {
				continue
			}
			out = append(out, domain.Anomaly{
				TS:         row.TS,
				RunID:      runID,
				Sector:     row.Sector,
				Metric:     metric,
				ZScore:     z,
				Confidence: row.MeanConfidence,
			})
		}
	}
	return out
}

// Severe filters anomalies down to those at or beyond the severe threshold.
func Severe(anomalies []domain.Anomaly, severeZ float64) []domain.Anomaly {
	var out []domain.Anomaly
	for _, a := range anomalies {
		if a.Severe(severeZ) {
			out = append(out, a)
		}
	}
	return out
}
