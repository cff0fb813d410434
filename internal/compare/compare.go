// Package compare builds the per-sector hype and reality indices and reports
// the gap between them.
package compare

import (
	"math"

	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/domain"
)

// Hype input keys, matching the config hype_weights map.
const (
	InputMediaDensity = "media_density"
	InputSocialPulse  = "social_pulse"
)

// realityFeatures maps reality_weights keys to their feature columns.
var realityFeatures = map[string]string{
	"jobs":   domain.FeatureJobsKeywordCount,
	"github": domain.FeatureGithubStars30d,
	"papers": domain.FeatureNewPapers7d,
	"grants": domain.FeatureGrants90d,
}

// BuildIndices computes one ComparisonRow per sector for the latest feature
// day. mediaZ and socialZ carry the latest standardized narrative values per
// sector; a sector absent from either map simply contributes nothing to the
// hype blend (the remaining weights renormalize — a missing input is not a
// zero input). Returns nil when the feature table is empty.
func BuildIndices(cfg *config.Config, features []domain.FeatureRow, mediaZ, socialZ map[string]float64) []domain.ComparisonRow {
	if len(features) == 0 {
		return nil
	}

	latest := features[0].TS
	for _, row := range features[1:] {
		if row.TS.After(latest) {
			latest = row.TS
		}
	}

	rows := make([]domain.ComparisonRow, 0, len(cfg.Sectors))
	for _, sector := range cfg.Sectors {
		hypeInputs := make(map[string]float64)
		if z, ok := mediaZ[sector]; ok {
			hypeInputs[InputMediaDensity] = z
		}
		if z, ok := socialZ[sector]; ok {
			hypeInputs[InputSocialPulse] = z
		}
		hype := toScale(weightedScore(hypeInputs, cfg.HypeWeights))

		realityInputs := make(map[string]float64)
		for key, column := range realityFeatures {
			if _, ok := cfg.RealityWeights[key]; !ok {
				continue
			}
			realityInputs[key] = latestZ(features, sector, column)
		}
		reality := toScale(weightedScore(realityInputs, cfg.RealityWeights))

		rows = append(rows, domain.ComparisonRow{
			TS:           latest,
			Sector:       sector,
			HypeIndex:    hype,
			RealityIndex: reality,
			Gap:          hype - reality,
		})
	}
	return rows
}

// latestZ standardizes the sector's series for one column and returns the z
// of its last point. Zero-variance series read as z=0.
func latestZ(features []domain.FeatureRow, sector, column string) float64 {
	var series []float64
	for _, row := range features {
		if row.Sector == sector {
			series = append(series, row.Feature(column))
		}
	}
	if len(series) == 0 {
		return 0
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
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (series[len(series)-1] - mean) / std
}

// weightedScore blends present inputs, renormalizing over the weights that
// actually have a value.
func weightedScore(values, weights map[string]float64) float64 {
	var total, weightSum float64
	for key, weight := range weights {
		if v, ok := values[key]; ok {
			total += v * weight
			weightSum += weight
		}
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

// toScale maps z-space onto the 0-100 display scale.
func toScale(z float64) float64 {
	return math.Max(0, math.Min(100, 50+z*15))
}
