// Package brief turns the latest comparison snapshot into per-sector
// narrative briefs. Summarization is delegated to an opaque external
// producer; a deterministic local fallback keeps briefs flowing when it is
// unavailable.
package brief

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/narrative"
)

// Summarizer is the external text producer. Implementations live outside the
// core; errors fall back to the local summary.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Generator builds briefs from persisted comparison and score snapshots.
type Generator struct {
	summarizer Summarizer
}

func NewGenerator(summarizer Summarizer) *Generator {
	return &Generator{summarizer: summarizer}
}

// Generate returns one brief per sector present in the latest comparison
// snapshot. Returns nil when there are no comparisons yet.
func (g *Generator) Generate(ctx context.Context, comparisons []domain.ComparisonRow, scores []domain.ScoreRow, topics map[string]narrative.Topics) []domain.Brief {
	if len(comparisons) == 0 {
		return nil
	}

	latest := comparisons[0].TS
	for _, row := range comparisons[1:] {
		if row.TS.After(latest) {
			latest = row.TS
		}
	}

	components := topComponents(scores)

	var briefs []domain.Brief
	for _, row := range comparisons {
		if !row.TS.Equal(latest) {
			continue
		}
		sectorTopics := topics[row.Sector]
		sectorComponents := components[row.Sector]

		summary := ""
		if g.summarizer != nil {
			prompt := buildPrompt(row, sectorComponents, sectorTopics.Sources)
			s, err := g.summarizer.Summarize(ctx, prompt)
			if err != nil {
				log.Warn().Str("sector", row.Sector).Err(err).Msg("summarizer failed, using fallback")
			} else {
				summary = s
			}
		}
		if summary == "" {
			summary = fallbackSummary(row, sectorComponents, sectorTopics.Sources)
		}

		sources := sectorTopics.Sources
		if len(sources) > 5 {
			sources = sources[:5]
		}
		briefs = append(briefs, domain.Brief{
			TS:      row.TS,
			Sector:  row.Sector,
			Title:   fmt.Sprintf("%s Founder Brief", titleCase(row.Sector)),
			Summary: summary,
			Sources: sources,
		})
	}
	return briefs
}

// topComponents picks the three largest |z| score components per sector on
// the latest scored day, formatted for prompts and fallbacks.
func topComponents(scores []domain.ScoreRow) map[string][]string {
	if len(scores) == 0 {
		return nil
	}
	latest := scores[0].TS
	for _, s := range scores[1:] {
		if s.TS.After(latest) {
			latest = s.TS
		}
	}

	out := make(map[string][]string)
	for _, s := range scores {
		if !s.TS.Equal(latest) {
			continue
		}
		type comp struct {
			name string
			z    float64
		}
		comps := make([]comp, 0, len(s.Components))
		for name, z := range s.Components {
			comps = append(comps, comp{name: name, z: z})
		}
		sort.Slice(comps, func(i, j int) bool {
			ai, aj := comps[i].z, comps[j].z
			if ai < 0 {
				ai = -ai
			}
			if aj < 0 {
				aj = -aj
			}
			if ai != aj {
				return ai > aj
			}
			return comps[i].name < comps[j].name
		})
		if len(comps) > 3 {
			comps = comps[:3]
		}
		formatted := make([]string, len(comps))
		for i, c := range comps {
			formatted[i] = fmt.Sprintf("%s: %+.2f", c.name, c.z)
		}
		out[s.Sector] = formatted
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildPrompt(row domain.ComparisonRow, components, sources []string) string {
	if len(sources) > 5 {
		sources = sources[:5]
	}
	return fmt.Sprintf(
		"You are generating a daily founder brief for the %s sector. "+
			"Hype index is %.1f (media + social buzz) while reality index is %.1f "+
			"based on hiring, repos, papers, and grants. "+
			"Summarize the gap and what actions founders should consider in 6-8 sentences. "+
			"Key metrics: %s. Sources to cite: %s. "+
			"Return concise prose with actionable tone.",
		row.Sector, row.HypeIndex, row.RealityIndex,
		strings.Join(components, ", "), strings.Join(sources, ", "))
}

func fallbackSummary(row domain.ComparisonRow, components, sources []string) string {
	direction := "lagging"
	if row.HypeIndex > row.RealityIndex {
		direction = "outpacing"
	}
	highlights := "steady signals"
	if len(components) > 0 {
		highlights = strings.Join(components, ", ")
	}

	lines := []string{
		fmt.Sprintf("Hype is %s fundamentals in %s: hype %.1f vs reality %.1f.", direction, row.Sector, row.HypeIndex, row.RealityIndex),
		fmt.Sprintf("Reality highlights: %s.", highlights),
	}
	if len(sources) > 0 {
		cite := sources
		if len(cite) > 3 {
			cite = cite[:3]
		}
		lines = append(lines, fmt.Sprintf("Sources to review: %s.", strings.Join(cite, ", ")))
	}
	lines = append(lines, "Action: reconcile narrative vs execution by double-checking hiring, shipping, and capital plans.")
	return strings.Join(lines, " ")
}
