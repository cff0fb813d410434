package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate_WeightSumDrift(t *testing.T) {
	cfg := Default()
	cfg.MetricWeights["new_papers_7d"] = 0.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights sum")
}

func TestValidate_WeightSumWithinTolerance(t *testing.T) {
	cfg := Default()
	cfg.MetricWeights["grants_90d"] = 0.1005

	assert.NoError(t, cfg.Validate())
}

func TestValidate_NonFiniteWeight(t *testing.T) {
	cfg := Default()
	cfg.MetricWeights["grants_90d"] = math.Inf(1)

	assert.Error(t, cfg.Validate())
}

func TestValidate_StructuralConstraints(t *testing.T) {
	cfg := Default()
	cfg.TriangulationMinSources = 1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Sectors = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.WindowDays = 0
	assert.Error(t, cfg.Validate())
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YamlOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("anomaly_z: 2.5\nsectors: [ai, quantum]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.AnomalyZ)
	assert.Equal(t, []string{"ai", "quantum"}, cfg.Sectors)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3.0, cfg.SevereZ)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEAKRADAR_REDIS_ADDR", "cache:6380")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metric_weights: {new_papers_7d: 0.9}\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestHash_StableAndSensitive(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Hash(), b.Hash())

	b.AnomalyZ = 2.5
	assert.NotEqual(t, a.Hash(), b.Hash())

	// Operational knobs stay out of the hash.
	c := Default()
	c.DatabaseURL = "postgres://elsewhere/db"
	c.ListenAddr = ":9999"
	assert.Equal(t, a.Hash(), c.Hash())
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "10s", cfg.DBTimeout().String())
	assert.Equal(t, "36h0m0s", cfg.SourceSilence().String())
}
