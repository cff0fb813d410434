package compare

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/domain"
)

var day0 = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func flatFeatures(cfg *config.Config, days int) []domain.FeatureRow {
	var rows []domain.FeatureRow
	for i := 0; i < days; i++ {
		for _, sector := range cfg.Sectors {
			rows = append(rows, domain.FeatureRow{TS: day0.AddDate(0, 0, i), Sector: sector})
		}
	}
	return rows
}

func findRow(t *testing.T, rows []domain.ComparisonRow, sector string) domain.ComparisonRow {
	t.Helper()
	for _, r := range rows {
		if r.Sector == sector {
			return r
		}
	}
	t.Fatalf("no comparison row for %s", sector)
	return domain.ComparisonRow{}
}

func TestBuildIndices_EmptyFeatures(t *testing.T) {
	assert.Nil(t, BuildIndices(config.Default(), nil, nil, nil))
}

func TestBuildIndices_FlatRealityReadsMidScale(t *testing.T) {
	cfg := config.Default()
	rows := BuildIndices(cfg, flatFeatures(cfg, 10), nil, nil)

	require.Len(t, rows, len(cfg.Sectors))
	for _, r := range rows {
		assert.Equal(t, 50.0, r.RealityIndex)
		// No narrative inputs at all: hype has no witnesses and reads 50.
		assert.Equal(t, 50.0, r.HypeIndex)
		assert.Zero(t, r.Gap)
		assert.Equal(t, day0.AddDate(0, 0, 9), r.TS)
	}
}

func TestBuildIndices_MissingSocialRenormalizesHype(t *testing.T) {
	cfg := config.Default()
	mediaZ := map[string]float64{"ai": 1.0}

	rows := BuildIndices(cfg, flatFeatures(cfg, 10), mediaZ, nil)
	ai := findRow(t, rows, "ai")

	// With social absent the media weight renormalizes to 1.0: 50 + 15*1.
	// An unrenormalized blend would read 59.
	assert.InDelta(t, 65.0, ai.HypeIndex, 1e-9)
	assert.InDelta(t, 15.0, ai.Gap, 1e-9)
}

func TestBuildIndices_BothHypeInputsBlend(t *testing.T) {
	cfg := config.Default()
	mediaZ := map[string]float64{"ai": 2.0}
	socialZ := map[string]float64{"ai": -1.0}

	rows := BuildIndices(cfg, flatFeatures(cfg, 10), mediaZ, socialZ)
	ai := findRow(t, rows, "ai")

	// 0.6*2 + 0.4*(-1) = 0.8 in z-space.
	assert.InDelta(t, 50+15*0.8, ai.HypeIndex, 1e-9)
}

func TestBuildIndices_RealityTracksJobSpike(t *testing.T) {
	cfg := config.Default()
	features := flatFeatures(cfg, 10)
	// Spike jobs for ai on the final day.
	for i := range features {
		if features[i].Sector == "ai" && features[i].TS.Equal(day0.AddDate(0, 0, 9)) {
			features[i].JobsKeywordCount = 30
		}
	}

	rows := BuildIndices(cfg, features, nil, nil)
	ai := findRow(t, rows, "ai")
	biotech := findRow(t, rows, "biotech")

	assert.True(t, ai.RealityIndex > 50)
	assert.Equal(t, 50.0, biotech.RealityIndex)
	// Hype has no inputs, so the gap goes negative on a reality spike.
	assert.True(t, ai.Gap < 0)
}

func TestToScale_Clamps(t *testing.T) {
	assert.Equal(t, 100.0, toScale(10))
	assert.Equal(t, 0.0, toScale(-10))
	assert.Equal(t, 50.0, toScale(0))
	assert.InDelta(t, 65.0, toScale(1), 1e-9)
}

func TestLatestZ_ZeroVarianceSeries(t *testing.T) {
	cfg := config.Default()
	assert.Zero(t, latestZ(flatFeatures(cfg, 5), "ai", domain.FeatureJobsKeywordCount))
	assert.Zero(t, latestZ(nil, "ai", domain.FeatureJobsKeywordCount))
}
