// Package validate gatekeeps raw collector rows before they are admitted to
// the event log. The check is a pure predicate; the caller routes accepted
// rows to events and rejected rows to quarantine with the returned reason.
package validate

import (
	"fmt"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// Candidate is an untrusted row as yielded by a collector. Timestamps arrive
// as strings because a broken collector may emit garbage; the validator, not
// the collector, decides whether they parse.
type Candidate struct {
	TS           string
	Source       string
	Sector       string
	Entity       string
	Metric       string
	Value        *float64
	Confidence   *float64
	HTTPStatus   *int
	Payload      []byte
	SourceURL    string
	FetchedAt    time.Time
	ParseVersion string
	Checksum     string
	License      string
}

var tsLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTS(value string) (time.Time, bool) {
	for _, layout := range tsLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// Check applies the validation rules in order; the first failure wins.
func Check(c Candidate, now time.Time, staleAfterDays int) (bool, string) {
	if c.TS == "" {
		return false, "missing ts"
	}
	ts, ok := parseTS(c.TS)
	if !ok {
		return false, "invalid ts"
	}
	if ts.Before(now.Add(-time.Duration(staleAfterDays) * 24 * time.Hour)) {
		return false, "ts too old"
	}

	if !domain.AllowedMetrics[c.Metric] {
		return false, fmt.Sprintf("invalid metric %s", c.Metric)
	}

	if c.Value == nil || *c.Value < 0 {
		return false, "value negative"
	}

	if c.Confidence != nil && (*c.Confidence < 0 || *c.Confidence > 1) {
		return false, "confidence out of range"
	}

	if c.HTTPStatus != nil && *c.HTTPStatus != 200 {
		return false, fmt.Sprintf("http %d", *c.HTTPStatus)
	}

	return true, ""
}

// Event converts an accepted candidate into a log event. Call only after
// Check returned ok; the conversion assumes ts and value parse.
func Event(c Candidate) domain.Event {
	ts, _ := parseTS(c.TS)
	var value float64
	if c.Value != nil {
		value = *c.Value
	}
	return domain.Event{
		TS:           ts,
		Source:       c.Source,
		Sector:       c.Sector,
		Entity:       c.Entity,
		Metric:       c.Metric,
		Value:        value,
		Payload:      c.Payload,
		SourceURL:    c.SourceURL,
		FetchedAt:    c.FetchedAt,
		ParseVersion: c.ParseVersion,
		Checksum:     c.Checksum,
		License:      c.License,
		Confidence:   c.Confidence,
	}
}

// Quarantined converts a rejected candidate into its quarantine record. The
// original row is preserved as-is next to the rejection reason, including an
// unparseable timestamp (stored at zero time) for audit.
func Quarantined(c Candidate, reason string) domain.QuarantinedEvent {
	ts, _ := parseTS(c.TS)
	var value float64
	if c.Value != nil {
		value = *c.Value
	}
	return domain.QuarantinedEvent{
		Event: domain.Event{
			TS:           ts,
			Source:       c.Source,
			Sector:       c.Sector,
			Entity:       c.Entity,
			Metric:       c.Metric,
			Value:        value,
			Payload:      c.Payload,
			SourceURL:    c.SourceURL,
			FetchedAt:    c.FetchedAt,
			ParseVersion: c.ParseVersion,
			Checksum:     c.Checksum,
			License:      c.License,
			Confidence:   c.Confidence,
		},
		Error: reason,
	}
}
