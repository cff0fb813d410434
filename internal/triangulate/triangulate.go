// Package triangulate answers "do independent sources agree?" per
// (day, sector, metric) group in the event log.
package triangulate

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// eps keeps the disagreement denominator away from zero.
const eps = 1e-6

// SectorDay keys the per-day per-sector disagreement rollup.
type SectorDay struct {
	TS     time.Time
	Sector string
}

type groupKey struct {
	ts     time.Time
	sector string
	metric string
}

type sourceKey struct {
	groupKey
	source string
}

// Consensus computes a trimmed-mean consensus value and normalized
// disagreement for every (day, sector, metric) reported by at least
// minSources distinct sources. A source reporting twice in one day counts
// once (its readings are averaged first). Records come back sorted by
// day, sector, metric so downstream output is deterministic.
func Consensus(events []domain.Event, minSources int) []domain.ConsensusRecord {
	if len(events) == 0 {
		return nil
	}

	// Average same-day same-source readings so one chatty source does not
	// masquerade as several witnesses.
	perSourceSum := make(map[sourceKey]float64)
	perSourceN := make(map[sourceKey]int)
	for _, e := range events {
		k := sourceKey{
			groupKey: groupKey{ts: domain.Day(e.TS), sector: e.Sector, metric: e.Metric},
			source:   e.Source,
		}
		perSourceSum[k] += e.Value
		perSourceN[k]++
	}

	grouped := make(map[groupKey][]float64)
	for k, sum := range perSourceSum {
		grouped[k.groupKey] = append(grouped[k.groupKey], sum/float64(perSourceN[k]))
	}

	keys := make([]groupKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].ts.Equal(keys[j].ts) {
			return keys[i].ts.Before(keys[j].ts)
		}
		if keys[i].sector != keys[j].sector {
			return keys[i].sector < keys[j].sector
		}
		return keys[i].metric < keys[j].metric
	})

	var records []domain.ConsensusRecord
	for _, k := range keys {
		values := grouped[k]
		if len(values) < minSources {
			continue
		}
		sort.Float64s(values)

		mean := meanOf(values)
		denom := mean
		if denom == 0 {
			denom = eps
		}
		spread := values[len(values)-1] - values[0]
		disagreement := spread / (math.Abs(denom) + eps)
		disagreement = math.Max(0, math.Min(1, disagreement))

		records = append(records, domain.ConsensusRecord{
			TS:             k.ts,
			Sector:         k.sector,
			Metric:         k.metric,
			ConsensusValue: trimmedMean(values),
			Disagreement:   disagreement,
			SourceCount:    len(values),
		})
	}
	return records
}

// DisagreementBySector averages disagreement across each sector-day's
// qualifying metrics. Sector-days with no qualifying metric are absent from
// the map; the feature builder reads absence as 0.0.
func DisagreementBySector(records []domain.ConsensusRecord) map[SectorDay]float64 {
	sums := make(map[SectorDay]float64)
	counts := make(map[SectorDay]int)
	for _, r := range records {
		k := SectorDay{TS: r.TS, Sector: r.Sector}
		sums[k] += r.Disagreement
		counts[k]++
	}

	out := make(map[SectorDay]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// trimmedMean drops the top and bottom 10% of values (at least one from each
// tail) before averaging. Groups smaller than 3, or where trimming would
// empty the slice, fall back to the plain mean. Input must be sorted.
func trimmedMean(sorted []float64) float64 {
	n := len(sorted)
	if n < 3 {
		return meanOf(sorted)
	}
	k := n / 10
	if k < 1 {
		k = 1
	}
	if n-2*k <= 0 {
		return meanOf(sorted)
	}
	return meanOf(sorted[k : n-k])
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
