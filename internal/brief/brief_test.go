package brief

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/narrative"
)

var day0 = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

type stubSummarizer struct {
	text string
	err  error
}

func (s *stubSummarizer) Summarize(context.Context, string) (string, error) {
	return s.text, s.err
}

func comparisons() []domain.ComparisonRow {
	return []domain.ComparisonRow{
		{TS: day0, Sector: "ai", HypeIndex: 70, RealityIndex: 52, Gap: 18},
		{TS: day0, Sector: "biotech", HypeIndex: 45, RealityIndex: 55, Gap: -10},
	}
}

func TestGenerate_NoComparisons(t *testing.T) {
	g := NewGenerator(nil)
	assert.Nil(t, g.Generate(context.Background(), nil, nil, nil))
}

func TestGenerate_FallbackSummary(t *testing.T) {
	g := NewGenerator(nil)

	briefs := g.Generate(context.Background(), comparisons(), nil, map[string]narrative.Topics{
		"ai": {Sources: []string{"gdelt", "hn"}},
	})
	require.Len(t, briefs, 2)

	ai := briefs[0]
	assert.Equal(t, "Ai Founder Brief", ai.Title)
	assert.Equal(t, "ai", ai.Sector)
	assert.Contains(t, ai.Summary, "Hype is outpacing fundamentals in ai")
	assert.Contains(t, ai.Summary, "gdelt, hn")
	assert.Equal(t, []string{"gdelt", "hn"}, ai.Sources)

	biotech := briefs[1]
	assert.Contains(t, biotech.Summary, "Hype is lagging fundamentals in biotech")
	assert.Empty(t, biotech.Sources)
}

func TestGenerate_SummarizerErrorFallsBack(t *testing.T) {
	g := NewGenerator(&stubSummarizer{err: errors.New("model offline")})

	briefs := g.Generate(context.Background(), comparisons(), nil, nil)
	require.Len(t, briefs, 2)
	assert.Contains(t, briefs[0].Summary, "Hype is outpacing fundamentals")
}

func TestGenerate_SummarizerTextWins(t *testing.T) {
	g := NewGenerator(&stubSummarizer{text: "custom take"})

	briefs := g.Generate(context.Background(), comparisons(), nil, nil)
	require.Len(t, briefs, 2)
	assert.Equal(t, "custom take", briefs[0].Summary)
}

func TestGenerate_LatestDayOnly(t *testing.T) {
	rows := append(comparisons(),
		domain.ComparisonRow{TS: day0.AddDate(0, 0, -1), Sector: "climate", HypeIndex: 50, RealityIndex: 50})

	g := NewGenerator(nil)
	briefs := g.Generate(context.Background(), rows, nil, nil)
	require.Len(t, briefs, 2)
	for _, b := range briefs {
		assert.Equal(t, day0, b.TS)
	}
}

func TestTopComponents(t *testing.T) {
	scores := []domain.ScoreRow{{
		TS:     day0,
		Sector: "ai",
		Components: map[string]float64{
			"new_papers_7d":         2.4,
			"recruiting_trials_30d": -3.1,
			"jobs_keyword_count":    0.2,
			"github_stars_30d":      1.0,
			"grants_90d":            -0.5,
		},
	}}

	out := topComponents(scores)
	require.Len(t, out["ai"], 3)
	assert.Equal(t, "recruiting_trials_30d: -3.10", out["ai"][0])
	assert.Equal(t, "new_papers_7d: +2.40", out["ai"][1])
	assert.Equal(t, "github_stars_30d: +1.00", out["ai"][2])
}

func TestGenerate_SourceListCappedAtFive(t *testing.T) {
	g := NewGenerator(nil)
	topics := map[string]narrative.Topics{
		"ai": {Sources: []string{"a", "b", "c", "d", "e", "f", "g"}},
	}

	briefs := g.Generate(context.Background(), comparisons(), nil, topics)
	require.Len(t, briefs, 2)
	assert.Len(t, briefs[0].Sources, 5)
}
