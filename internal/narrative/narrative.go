// Package narrative derives standardized media and social attention signals
// from the narrative event stream. The comparator consumes only the latest
// per-sector z-values; the raw hit counts never touch the scoring core.
package narrative

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// windowDays bounds how far back the attention z-scores look.
const windowDays = 30

// Point is one standardized (day, sector) attention reading.
type Point struct {
	TS     time.Time
	Sector string
	Value  float64
	Z      float64
}

// MediaDensity returns per-sector media hit z-scores over the trailing window.
func MediaDensity(rows []domain.NarrativeEvent, now time.Time) []Point {
	return pulse(rows, domain.MetricMediaHits, now)
}

// SocialPulse returns per-sector social mention z-scores over the trailing window.
func SocialPulse(rows []domain.NarrativeEvent, now time.Time) []Point {
	return pulse(rows, domain.MetricSocialMentions, now)
}

func pulse(rows []domain.NarrativeEvent, metric string, now time.Time) []Point {
	cutoff := domain.Day(now.Add(-windowDays * 24 * time.Hour))

	type key struct {
		ts     time.Time
		sector string
	}
	sums := make(map[key]float64)
	for _, row := range rows {
		if row.Metric != metric {
			continue
		}
		day := domain.Day(row.TS)
		if day.Before(cutoff) {
			continue
		}
		sums[key{ts: day, sector: row.Sector}] += row.Value
	}
	if len(sums) == 0 {
		return nil
	}

	keys := make([]key, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sector != keys[j].sector {
			return keys[i].sector < keys[j].sector
		}
		return keys[i].ts.Before(keys[j].ts)
	})

	var points []Point
	start := 0
	for i := 1; i <= len(keys); i++ {
		if i < len(keys) && keys[i].sector == keys[start].sector {
			continue
		}
		sectorKeys := keys[start:i]
		series := make([]float64, len(sectorKeys))
		for j, k := range sectorKeys {
			series[j] = sums[k]
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
		std := math.Sqrt(variance / float64(len(series)))

		for j, k := range sectorKeys {
			z := 0.0
			if std != 0 && !math.IsNaN(std) {
				z = (series[j] - mean) / std
			}
			points = append(points, Point{TS: k.ts, Sector: k.sector, Value: series[j], Z: z})
		}
		start = i
	}
	return points
}

// LatestZ reduces a point series to the newest z per sector, the shape the
// comparator consumes.
func LatestZ(points []Point) map[string]float64 {
	latest := make(map[string]Point)
	for _, p := range points {
		if prev, ok := latest[p.Sector]; !ok || p.TS.After(prev.TS) {
			latest[p.Sector] = p
		}
	}
	out := make(map[string]float64, len(latest))
	for sector, p := range latest {
		out[sector] = p.Z
	}
	return out
}

// Topics is the latest narrative payload surface for one sector.
type Topics struct {
	TopTopics []string `json:"top_topics"`
	Sources   []string `json:"sources"`
}

// LatestTopics extracts the newest payload topics and sources per sector for
// brief generation. Narrative payloads are the one place outside the UI
// where payload structure is read; a malformed payload reads as empty.
func LatestTopics(rows []domain.NarrativeEvent, sectors []string) map[string]Topics {
	sorted := make([]domain.NarrativeEvent, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS.After(sorted[j].TS) })

	out := make(map[string]Topics)
	for _, sector := range sectors {
		for _, row := range sorted {
			if row.Sector != sector {
				continue
			}
			var topics Topics
			if len(row.Payload) > 0 {
				_ = json.Unmarshal(row.Payload, &topics)
			}
			out[sector] = topics
			break
		}
	}
	return out
}
