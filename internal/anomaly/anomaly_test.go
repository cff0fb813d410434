package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/domain"
)

var day0 = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func TestExtract_ThresholdBoundary(t *testing.T) {
	scores := []domain.ScoreRow{
		{
			TS:     day0,
			Sector: "ai",
			Components: map[string]float64{
				domain.FeatureNewPapers7d:      2.5,
				domain.FeatureJobsKeywordCount: 1.9,
				domain.FeatureGrants90d:        -2.0,
			},
			MeanConfidence: 0.8,
		},
	}

	out := Extract(scores, "run-1", 2.0)
	require.Len(t, out, 2)

	// Sorted by metric name within the row.
	assert.Equal(t, domain.FeatureGrants90d, out[0].Metric)
	assert.Equal(t, -2.0, out[0].ZScore)
	assert.Equal(t, domain.FeatureNewPapers7d, out[1].Metric)
	assert.Equal(t, 2.5, out[1].ZScore)

	for _, a := range out {
		assert.Equal(t, "run-1", a.RunID)
		assert.Equal(t, day0, a.TS)
		assert.Equal(t, 0.8, a.Confidence)
		assert.Nil(t, a.VerifiedStatus)
	}
}

func TestExtract_LatestDayOnly(t *testing.T) {
	scores := []domain.ScoreRow{
		{TS: day0, Sector: "ai", Components: map[string]float64{domain.FeatureNewPapers7d: 5.0}},
		{TS: day0.AddDate(0, 0, 1), Sector: "ai", Components: map[string]float64{domain.FeatureNewPapers7d: 0.5}},
	}

	// The old spike is history, not news.
	assert.Empty(t, Extract(scores, "run-1", 2.0))
}

func TestExtract_EmptyScores(t *testing.T) {
	assert.Empty(t, Extract(nil, "run-1", 2.0))
}

func TestSevere(t *testing.T) {
	anomalies := []domain.Anomaly{
		{Metric: "a", ZScore: 3.0},
		{Metric: "b", ZScore: -3.5},
		{Metric: "c", ZScore: 2.9},
	}

	severe := Severe(anomalies, 3.0)
	require.Len(t, severe, 2)
	assert.Equal(t, "a", severe[0].Metric)
	assert.Equal(t, "b", severe[1].Metric)
}
