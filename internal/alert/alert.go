// Package alert composes run alerts and hands them to an opaque delivery
// sink. Transport is out of scope for the core; the shipped sink just logs.
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/leakradar/internal/domain"
)

// maxLines caps one alert message.
const maxLines = 10

// Sink delivers a composed alert message.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// LogSink writes alerts to the structured log. The default when no external
// transport is configured.
type LogSink struct{}

func (LogSink) Send(_ context.Context, message string) error {
	log.Info().Str("alert", message).Msg("alert")
	return nil
}

// Compose renders the alert body for one run: high-scoring sectors first,
// then severe anomalies. Returns "" when there is nothing worth sending.
func Compose(latestScores []domain.ScoreRow, anomalies []domain.Anomaly, alertScore, severeZ float64) string {
	var lines []string
	for _, row := range latestScores {
		if row.Score >= alertScore {
			lines = append(lines, fmt.Sprintf("%s score %.2f (conf %.2f)", row.Sector, row.Score, row.MeanConfidence))
		}
	}
	for _, a := range anomalies {
		if a.Severe(severeZ) {
			lines = append(lines, fmt.Sprintf("%s %s z=%.2f (conf %.2f)", a.Sector, a.Metric, a.ZScore, a.Confidence))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return "LeakRadar alerts:\n" + strings.Join(lines, "\n")
}
