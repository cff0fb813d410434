// Package backtest evaluates anomaly quality offline: did flagged spikes
// persist, and how many reviewed ones turned out to be noise? The summary is
// a calibration report for threshold tuning, never a production gate.
package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// persistHorizon is how long after an anomaly a recurrence of the same
// (sector, metric) still counts as persistence.
const persistHorizon = 7 * 24 * time.Hour

// Summary is the backtest snapshot.
type Summary struct {
	AnomalyCount   int     `json:"anomaly_count"`
	PersistPct     float64 `json:"persist_pct"`
	FalseSpikeRate float64 `json:"false_spike_rate"`
}

// Evaluate computes persistence and false-spike rate over the full anomaly
// history. PersistPct is the fraction of anomalies whose (sector, metric)
// recurs within the following 7 days. FalseSpikeRate is the fraction judged
// noise or bug among the reviewed ones; with nothing reviewed it reads 0.
func Evaluate(anomalies []domain.Anomaly) Summary {
	if len(anomalies) == 0 {
		return Summary{}
	}

	sorted := make([]domain.Anomaly, len(anomalies))
	copy(sorted, anomalies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS.Before(sorted[j].TS) })

	var persisted int
	for i, a := range sorted {
		for _, later := range sorted[i+1:] {
			if !later.TS.After(a.TS) {
				continue
			}
			if later.TS.Sub(a.TS) > persistHorizon {
				break
			}
			if later.Sector == a.Sector && later.Metric == a.Metric {
				persisted++
				break
			}
		}
	}

	var reviewed, judgedFalse int
	for _, a := range sorted {
		if a.VerifiedStatus == nil {
			continue
		}
		reviewed++
		if *a.VerifiedStatus == domain.VerdictNoise || *a.VerifiedStatus == domain.VerdictBug {
			judgedFalse++
		}
	}

	s := Summary{
		AnomalyCount: len(sorted),
		PersistPct:   round3(float64(persisted) / float64(len(sorted))),
	}
	if reviewed > 0 {
		s.FalseSpikeRate = round3(float64(judgedFalse) / float64(reviewed))
	}
	return s
}

// WriteSummary persists the snapshot as a one-row CSV. A write failure on the
// primary path falls back to a .tmp sibling rather than failing the run.
func WriteSummary(s Summary, dataDir string) (string, error) {
	var b strings.Builder
	b.WriteString("anomaly_count,persist_pct,false_spike_rate\n")
	fmt.Fprintf(&b, "%d,%.3f,%.3f\n", s.AnomalyCount, s.PersistPct, s.FalseSpikeRate)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	dest := filepath.Join(dataDir, "backtest_summary.csv")
	if err := os.WriteFile(dest, []byte(b.String()), 0o644); err != nil {
		fallback := dest + ".tmp"
		if err2 := os.WriteFile(fallback, []byte(b.String()), 0o644); err2 != nil {
			return "", fmt.Errorf("failed to write backtest summary: %w", err)
		}
		return fallback, nil
	}
	return dest, nil
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
