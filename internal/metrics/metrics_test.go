package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestInstrumentsRegisteredUnderNamespace(t *testing.T) {
	// Touch the vecs so their first label combination exists.
	EventsIngested.WithLabelValues("arxiv").Inc()
	EventsQuarantined.WithLabelValues("arxiv").Inc()
	CollectorFailures.WithLabelValues("jobs").Inc()
	RunDuration.Observe(1.5)
	AnomaliesFlagged.Set(2)
	StaleSources.Set(1)

	families := gather(t)
	for _, name := range []string{
		"leakradar_events_ingested_total",
		"leakradar_events_quarantined_total",
		"leakradar_collector_failures_total",
		"leakradar_run_duration_seconds",
		"leakradar_anomalies_flagged",
		"leakradar_stale_sources",
	} {
		assert.Contains(t, families, name)
	}
}

func TestCounterLabelsBySource(t *testing.T) {
	EventsIngested.WithLabelValues("github").Add(3)

	families := gather(t)
	family := families["leakradar_events_ingested_total"]
	require.NotNil(t, family)
	assert.Equal(t, dto.MetricType_COUNTER, family.GetType())

	var found bool
	for _, m := range family.GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == "source" && label.GetValue() == "github" {
				found = true
				assert.GreaterOrEqual(t, m.GetCounter().GetValue(), 3.0)
			}
		}
	}
	assert.True(t, found)
}
