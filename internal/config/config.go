package config

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "LEAKRADAR"

// weightSumTolerance bounds the allowed drift of the metric weight sum from 1.0.
const weightSumTolerance = 0.001

// Config is the immutable pipeline configuration. Loaded once per process and
// passed explicitly into each stage; never mutated after Load returns.
type Config struct {
	Sectors []string `yaml:"sectors" validate:"min=1,dive,required"`

	// MetricWeights maps weighted feature columns to their share of the
	// composite score. Must sum to 1.0.
	MetricWeights map[string]float64 `yaml:"metric_weights" validate:"min=1"`

	WindowDays              int     `yaml:"z_score_window_days" validate:"gt=0"`
	AnomalyZ                float64 `yaml:"anomaly_z" validate:"gt=0"`
	SevereZ                 float64 `yaml:"severe_z" validate:"gt=0"`
	AlertScore              float64 `yaml:"alert_score"`
	TriangulationMinSources int     `yaml:"triangulation_min_sources" validate:"gte=2"`
	SourceSilenceHours      int     `yaml:"source_silence_hours" validate:"gt=0"`
	SevereSpikeBudget       int     `yaml:"severe_spike_budget" validate:"gt=0"`
	StaleEventDays          int     `yaml:"stale_event_days" validate:"gt=0"`

	HypeWeights    map[string]float64 `yaml:"hype_weights" validate:"min=1"`
	RealityWeights map[string]float64 `yaml:"reality_weights" validate:"min=1"`

	Schedule string `yaml:"schedule"`

	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL"`
	RedisAddr   string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ListenAddr  string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`

	DBTimeoutSeconds int `yaml:"db_timeout_seconds" validate:"gt=0"`
}

// Default returns the configuration shipped with the repo. Used as the base
// for Load and directly by tests.
func Default() *Config {
	return &Config{
		Sectors: []string{"ai", "biotech", "climate", "creator"},
		MetricWeights: map[string]float64{
			"new_papers_7d":         0.25,
			"recruiting_trials_30d": 0.25,
			"jobs_keyword_count":    0.20,
			"github_stars_30d":      0.20,
			"grants_90d":            0.10,
		},
		WindowDays:              90,
		AnomalyZ:                2.0,
		SevereZ:                 3.0,
		AlertScore:              2.0,
		TriangulationMinSources: 2,
		SourceSilenceHours:      36,
		SevereSpikeBudget:       5,
		StaleEventDays:          365,
		HypeWeights: map[string]float64{
			"media_density": 0.6,
			"social_pulse":  0.4,
		},
		RealityWeights: map[string]float64{
			"jobs":   0.35,
			"github": 0.25,
			"papers": 0.25,
			"grants": 0.15,
		},
		Schedule:         "0 6 * * *",
		DatabaseURL:      "postgres://localhost:5432/leakradar?sslmode=disable",
		RedisAddr:        "localhost:6379",
		DataDir:          "data",
		ListenAddr:       ":8090",
		DBTimeoutSeconds: 10,
	}
}

// Load reads the yaml config at path over the defaults, applies LEAKRADAR_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks structural constraints via struct tags, then the weight-sum
// invariants the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	var sum float64
	for name, w := range c.MetricWeights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("metric weight %s is not a finite non-negative number", name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("metric weights sum to %.6f, expected 1.0 ±%.3f", sum, weightSumTolerance)
	}

	for name, w := range c.HypeWeights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return fmt.Errorf("hype weight %s is not a finite positive number", name)
		}
	}
	for name, w := range c.RealityWeights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return fmt.Errorf("reality weight %s is not a finite positive number", name)
		}
	}
	return nil
}

// DBTimeout returns the per-query database timeout.
func (c *Config) DBTimeout() time.Duration {
	return time.Duration(c.DBTimeoutSeconds) * time.Second
}

// SourceSilence returns the staleness horizon for collector health checks.
func (c *Config) SourceSilence() time.Duration {
	return time.Duration(c.SourceSilenceHours) * time.Hour
}

// Hash returns a stable sha1 of the scoring-relevant configuration. Stamped
// on every run so threshold or weight drift between runs is detectable.
func (c *Config) Hash() string {
	payload := struct {
		Sectors           []string           `json:"sectors"`
		Weights           map[string]float64 `json:"weights"`
		ZWindow           int                `json:"z_window"`
		AlertScore        float64            `json:"alert_score"`
		AnomalyZ          float64            `json:"anomaly_z"`
		SevereZ           float64            `json:"severe_z"`
		TriangulationMin  int                `json:"triangulation_min"`
		SilenceHours      int                `json:"source_silence_hours"`
		SevereSpikeBudget int                `json:"severe_spike_budget"`
		HypeWeights       map[string]float64 `json:"hype_weights"`
		RealityWeights    map[string]float64 `json:"reality_weights"`
	}{
		Sectors:           c.Sectors,
		Weights:           c.MetricWeights,
		ZWindow:           c.WindowDays,
		AlertScore:        c.AlertScore,
		AnomalyZ:          c.AnomalyZ,
		SevereZ:           c.SevereZ,
		TriangulationMin:  c.TriangulationMinSources,
		SilenceHours:      c.SourceSilenceHours,
		SevereSpikeBudget: c.SevereSpikeBudget,
		HypeWeights:       c.HypeWeights,
		RealityWeights:    c.RealityWeights,
	}

	// encoding/json sorts map keys, so the hash is stable across runs.
	blob, err := json.Marshal(payload)
	if err != nil {
		return "unknown"
	}
	sum := sha1.Sum(blob)
	return hex.EncodeToString(sum[:])
}
