package triangulate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/domain"
)

var day = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func event(ts time.Time, source, sector, metric string, value float64) domain.Event {
	return domain.Event{TS: ts, Source: source, Sector: sector, Metric: metric, Value: value}
}

func TestConsensus_SingleSourceGroupSkipped(t *testing.T) {
	events := []domain.Event{
		event(day, "arxiv", "ai", "new_papers", 5),
	}
	assert.Empty(t, Consensus(events, 2))
}

func TestConsensus_TwoSourcesDisagreement(t *testing.T) {
	events := []domain.Event{
		event(day, "arxiv", "ai", "new_papers", 5),
		event(day, "pubmed", "ai", "new_papers", 7),
	}

	records := Consensus(events, 2)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, day, r.TS)
	assert.Equal(t, "ai", r.Sector)
	assert.Equal(t, "new_papers", r.Metric)
	assert.Equal(t, 2, r.SourceCount)
	assert.Equal(t, 6.0, r.ConsensusValue)
	// spread 2 over mean 6.
	assert.InDelta(t, 2.0/(6.0+eps), r.Disagreement, 1e-9)
}

func TestConsensus_SameSourceReadingsAveragedFirst(t *testing.T) {
	// One source reporting twice must not satisfy the two-source floor.
	events := []domain.Event{
		event(day, "arxiv", "ai", "new_papers", 4),
		event(day.Add(3*time.Hour), "arxiv", "ai", "new_papers", 6),
	}
	assert.Empty(t, Consensus(events, 2))

	events = append(events, event(day, "pubmed", "ai", "new_papers", 5))
	records := Consensus(events, 2)
	require.Len(t, records, 1)
	// arxiv collapses to 5, pubmed is 5: full agreement.
	assert.Equal(t, 5.0, records[0].ConsensusValue)
	assert.InDelta(t, 0.0, records[0].Disagreement, 1e-9)
}

func TestConsensus_TrimmedMeanDropsOutlier(t *testing.T) {
	events := []domain.Event{
		event(day, "a", "ai", "stars", 1),
		event(day, "b", "ai", "stars", 2),
		event(day, "c", "ai", "stars", 3),
		event(day, "d", "ai", "stars", 100),
	}

	records := Consensus(events, 2)
	require.Len(t, records, 1)
	// One value trimmed from each tail, so the 100 never drags the consensus.
	assert.Equal(t, 2.5, records[0].ConsensusValue)
}

func TestConsensus_DisagreementClampedToOne(t *testing.T) {
	events := []domain.Event{
		event(day, "a", "ai", "grants", 0),
		event(day, "b", "ai", "grants", 100),
	}

	records := Consensus(events, 2)
	require.Len(t, records, 1)
	assert.Equal(t, 1.0, records[0].Disagreement)
}

func TestConsensus_ZeroMeanGroup(t *testing.T) {
	events := []domain.Event{
		event(day, "a", "ai", "grants", 0),
		event(day, "b", "ai", "grants", 0),
	}

	records := Consensus(events, 2)
	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].Disagreement)
}

func TestConsensus_DeterministicOrdering(t *testing.T) {
	events := []domain.Event{
		event(day, "a", "biotech", "grants", 1),
		event(day, "b", "biotech", "grants", 2),
		event(day, "a", "ai", "stars", 1),
		event(day, "b", "ai", "stars", 2),
		event(day.AddDate(0, 0, -1), "a", "ai", "new_papers", 1),
		event(day.AddDate(0, 0, -1), "b", "ai", "new_papers", 2),
	}

	records := Consensus(events, 2)
	require.Len(t, records, 3)
	assert.Equal(t, "new_papers", records[0].Metric)
	assert.Equal(t, "ai", records[1].Sector)
	assert.Equal(t, "biotech", records[2].Sector)
}

func TestDisagreementBySector_AveragesAcrossMetrics(t *testing.T) {
	records := []domain.ConsensusRecord{
		{TS: day, Sector: "ai", Metric: "new_papers", Disagreement: 0.2},
		{TS: day, Sector: "ai", Metric: "stars", Disagreement: 0.4},
		{TS: day, Sector: "biotech", Metric: "grants", Disagreement: 0.1},
	}

	rollup := DisagreementBySector(records)
	assert.InDelta(t, 0.3, rollup[SectorDay{TS: day, Sector: "ai"}], 1e-9)
	assert.InDelta(t, 0.1, rollup[SectorDay{TS: day, Sector: "biotech"}], 1e-9)

	_, ok := rollup[SectorDay{TS: day, Sector: "climate"}]
	assert.False(t, ok)
}

func TestTrimmedMean_SmallGroupsUsePlainMean(t *testing.T) {
	assert.Equal(t, 6.0, trimmedMean([]float64{5, 7}))
	assert.Equal(t, 2.0, trimmedMean([]float64{1, 2, 3}))
}
