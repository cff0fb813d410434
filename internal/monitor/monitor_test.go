package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/domain"
)

var now = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

const silence = 36 * time.Hour

func TestCollectorHealth_StalenessBoundary(t *testing.T) {
	lastFetch := map[string]time.Time{
		"github": now.Add(-1 * time.Hour),
		"arxiv":  now.Add(-40 * time.Hour),
		"nih":    now.Add(-silence),
	}

	statuses := CollectorHealth(lastFetch, now, silence)
	require.Len(t, statuses, 3)

	// Sorted by source name.
	assert.Equal(t, "arxiv", statuses[0].Source)
	assert.True(t, statuses[0].Stale)

	assert.Equal(t, "github", statuses[1].Source)
	assert.False(t, statuses[1].Stale)

	// Exactly at the horizon still counts as alive.
	assert.Equal(t, "nih", statuses[2].Source)
	assert.False(t, statuses[2].Stale)
}

func TestCollectorHealth_ZeroTimeIsStale(t *testing.T) {
	statuses := CollectorHealth(map[string]time.Time{"jobs": {}}, now, silence)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Stale)
	assert.Nil(t, statuses[0].LastSeen)
}

func TestStaleSources(t *testing.T) {
	statuses := []domain.CollectorStatus{
		{Source: "a", Stale: true},
		{Source: "b", Stale: false},
		{Source: "c", Stale: true},
	}
	assert.Equal(t, []string{"a", "c"}, StaleSources(statuses))
	assert.Empty(t, StaleSources(nil))
}

func TestSummarize(t *testing.T) {
	seen := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)
	statuses := []domain.CollectorStatus{
		{Source: "arxiv", LastSeen: &seen, Stale: false},
		{Source: "jobs", Stale: true},
	}

	assert.Equal(t, "arxiv:OK(2026-08-24T06:00:00Z), jobs:STALE(never)", Summarize(statuses))
}

func TestSpikeBudgetExceeded(t *testing.T) {
	day := domain.Day(now)
	severe := func(d time.Time) domain.Anomaly {
		return domain.Anomaly{TS: d, ZScore: 3.5}
	}

	var anomalies []domain.Anomaly
	for i := 0; i < 4; i++ {
		anomalies = append(anomalies, severe(day))
	}
	anomalies = append(anomalies, domain.Anomaly{TS: day, ZScore: 2.5})

	// Four severe on one day is under a budget of five; the mild one does
	// not count.
	assert.False(t, SpikeBudgetExceeded(anomalies, 3.0, 5))

	anomalies = append(anomalies, severe(day))
	assert.True(t, SpikeBudgetExceeded(anomalies, 3.0, 5))
}

func TestSpikeBudgetExceeded_CountsPerDay(t *testing.T) {
	day := domain.Day(now)
	var anomalies []domain.Anomaly
	for i := 0; i < 6; i++ {
		anomalies = append(anomalies, domain.Anomaly{TS: day.AddDate(0, 0, -i), ZScore: 4})
	}

	// Six severe anomalies spread across six days never blow a per-day budget.
	assert.False(t, SpikeBudgetExceeded(anomalies, 3.0, 5))
}

func TestSpikeBudgetExceeded_DisabledBudget(t *testing.T) {
	anomalies := []domain.Anomaly{{TS: now, ZScore: 10}}
	assert.False(t, SpikeBudgetExceeded(anomalies, 3.0, 0))
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, domain.RunStatusOK, RunStatus(nil, 0, false))
	assert.Equal(t, domain.RunStatusWarn, RunStatus([]string{"arxiv"}, 0, false))
	assert.Equal(t, domain.RunStatusWarn, RunStatus(nil, 1, false))
	assert.Equal(t, domain.RunStatusWarn, RunStatus(nil, 0, true))
}
