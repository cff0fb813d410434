// Package monitor tracks collector liveness and the severe-spike budget.
// Health is advisory: it escalates run status to warn and can suppress
// alerts, but it never blocks a run.
package monitor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

// CollectorHealth derives per-source staleness from the last fetch times in
// the event log. Sources come back sorted by name.
func CollectorHealth(lastFetch map[string]time.Time, now time.Time, silence time.Duration) []domain.CollectorStatus {
	sources := make([]string, 0, len(lastFetch))
	for source := range lastFetch {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	statuses := make([]domain.CollectorStatus, 0, len(sources))
	for _, source := range sources {
		last := lastFetch[source]
		status := domain.CollectorStatus{Source: source, Stale: true}
		if !last.IsZero() {
			seen := last
			status.LastSeen = &seen
			status.Stale = now.Sub(seen) > silence
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// StaleSources returns the names of sources the monitor considers silent.
func StaleSources(statuses []domain.CollectorStatus) []string {
	var out []string
	for _, s := range statuses {
		if s.Stale {
			out = append(out, s.Source)
		}
	}
	return out
}

// Summarize renders the health line logged after each run.
func Summarize(statuses []domain.CollectorStatus) string {
	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ts := "never"
		if s.LastSeen != nil {
			ts = s.LastSeen.UTC().Format(time.RFC3339)
		}
		flag := "OK"
		if s.Stale {
			flag = "STALE"
		}
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", s.Source, flag, ts))
	}
	return strings.Join(parts, ", ")
}

// SpikeBudgetExceeded reports whether any single calendar day carries at
// least budget anomalies at or beyond the severe threshold. A day like that
// smells of systemic noise rather than real signal, so the caller suppresses
// alerting and marks the run warn.
func SpikeBudgetExceeded(anomalies []domain.Anomaly, severeZ float64, budget int) bool {
	if budget <= 0 {
		return false
	}
	perDay := make(map[time.Time]int)
	for _, a := range anomalies {
		if !a.Severe(severeZ) {
			continue
		}
		perDay[domain.Day(a.TS)]++
	}
	for _, n := range perDay {
		if n >= budget {
			return true
		}
	}
	return false
}

// RunStatus escalates ok to warn when any source is stale, any severe
// anomaly exists, or the spike budget is blown.
func RunStatus(stale []string, severeCount int, budgetExceeded bool) string {
	if len(stale) > 0 || severeCount > 0 || budgetExceeded {
		return domain.RunStatusWarn
	}
	return domain.RunStatusOK
}
