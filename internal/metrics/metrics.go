// Package metrics exposes the pipeline's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leakradar",
		Name:      "events_ingested_total",
		Help:      "Validated events admitted to the log, by source.",
	}, []string{"source"})

	EventsQuarantined = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leakradar",
		Name:      "events_quarantined_total",
		Help:      "Rejected events routed to quarantine, by source.",
	}, []string{"source"})

	CollectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "leakradar",
		Name:      "collector_failures_total",
		Help:      "Collector invocations that errored and were recorded as zero results.",
	}, []string{"collector"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "leakradar",
		Name:      "run_duration_seconds",
		Help:      "Wall time of one full pipeline pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	AnomaliesFlagged = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leakradar",
		Name:      "anomalies_flagged",
		Help:      "Anomalies emitted by the latest run.",
	})

	StaleSources = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "leakradar",
		Name:      "stale_sources",
		Help:      "Sources past the silence horizon after the latest run.",
	})
)
