package narrative

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/domain"
)

var now = time.Date(2026, 8, 25, 15, 0, 0, 0, time.UTC)

func hit(ts time.Time, sector, metric string, value float64) domain.NarrativeEvent {
	return domain.NarrativeEvent{TS: ts, Source: "gdelt", Sector: sector, Metric: metric, Value: value}
}

func TestMediaDensity_StandardizesPerSector(t *testing.T) {
	day := domain.Day(now)
	rows := []domain.NarrativeEvent{
		hit(day.AddDate(0, 0, -2), "ai", domain.MetricMediaHits, 1),
		hit(day.AddDate(0, 0, -1), "ai", domain.MetricMediaHits, 1),
		hit(day, "ai", domain.MetricMediaHits, 4),
	}

	points := MediaDensity(rows, now)
	require.Len(t, points, 3)

	// mean 2, population std sqrt(2).
	want := (4.0 - 2.0) / math.Sqrt(2)
	last := points[len(points)-1]
	assert.Equal(t, day, last.TS)
	assert.InDelta(t, want, last.Z, 1e-9)
}

func TestMediaDensity_SameDayHitsSum(t *testing.T) {
	day := domain.Day(now)
	rows := []domain.NarrativeEvent{
		hit(day, "ai", domain.MetricMediaHits, 2),
		hit(day.Add(5*time.Hour), "ai", domain.MetricMediaHits, 3),
		hit(day.AddDate(0, 0, -1), "ai", domain.MetricMediaHits, 1),
	}

	points := MediaDensity(rows, now)
	require.Len(t, points, 2)
	assert.Equal(t, 5.0, points[1].Value)
}

func TestMediaDensity_WindowCutoff(t *testing.T) {
	day := domain.Day(now)
	rows := []domain.NarrativeEvent{
		hit(day.AddDate(0, 0, -40), "ai", domain.MetricMediaHits, 100),
		hit(day, "ai", domain.MetricMediaHits, 1),
	}

	points := MediaDensity(rows, now)
	require.Len(t, points, 1)
	assert.Equal(t, 1.0, points[0].Value)
}

func TestSocialPulse_IgnoresOtherMetrics(t *testing.T) {
	day := domain.Day(now)
	rows := []domain.NarrativeEvent{
		hit(day, "ai", domain.MetricMediaHits, 7),
		hit(day, "ai", domain.MetricSocialMentions, 3),
	}

	points := SocialPulse(rows, now)
	require.Len(t, points, 1)
	assert.Equal(t, 3.0, points[0].Value)
}

func TestPulse_EmptyInput(t *testing.T) {
	assert.Nil(t, MediaDensity(nil, now))
}

func TestLatestZ(t *testing.T) {
	day := domain.Day(now)
	points := []Point{
		{TS: day.AddDate(0, 0, -1), Sector: "ai", Z: 0.5},
		{TS: day, Sector: "ai", Z: 1.5},
		{TS: day.AddDate(0, 0, -1), Sector: "biotech", Z: -0.3},
	}

	latest := LatestZ(points)
	assert.InDelta(t, 1.5, latest["ai"], 1e-9)
	assert.InDelta(t, -0.3, latest["biotech"], 1e-9)
	_, ok := latest["climate"]
	assert.False(t, ok)
}

func TestLatestTopics(t *testing.T) {
	day := domain.Day(now)
	older := hit(day.AddDate(0, 0, -1), "ai", domain.MetricMediaHits, 1)
	older.Payload = []byte(`{"top_topics":["old"],"sources":["x"]}`)
	newer := hit(day, "ai", domain.MetricMediaHits, 1)
	newer.Payload = []byte(`{"top_topics":["agents","chips"],"sources":["gdelt","hn"]}`)
	malformed := hit(day, "biotech", domain.MetricMediaHits, 1)
	malformed.Payload = []byte(`{not json`)

	topics := LatestTopics([]domain.NarrativeEvent{older, newer, malformed}, []string{"ai", "biotech", "climate"})

	assert.Equal(t, []string{"agents", "chips"}, topics["ai"].TopTopics)
	assert.Equal(t, []string{"gdelt", "hn"}, topics["ai"].Sources)
	assert.Empty(t, topics["biotech"].TopTopics)

	_, ok := topics["climate"]
	assert.False(t, ok)
}
