// Package collect is the fan-in boundary between source collectors and the
// event log. Collectors themselves live outside the core; this package rate
// limits them, wraps each in a circuit breaker, validates every yielded row,
// and routes accepted rows to the log and rejected rows to quarantine. A
// failing collector is recorded as a zero-result, never a run abort.
package collect

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/leakradar/internal/config"
	"github.com/sawpanic/leakradar/internal/metrics"
	"github.com/sawpanic/leakradar/internal/persistence"
	"github.com/sawpanic/leakradar/internal/validate"
)

// Collector is the interface a source scraper presents to the core. The core
// validates everything it yields; collector-side validation is not trusted.
type Collector interface {
	Name() string
	Collect(ctx context.Context) ([]validate.Candidate, error)
}

// Result summarizes one collector's contribution to a run.
type Result struct {
	Inserted    int    `json:"inserted"`
	Quarantined int    `json:"quarantined"`
	Error       string `json:"error,omitempty"`
}

// Registry runs a fixed set of collectors sequentially with polite pacing.
type Registry struct {
	cfg        *config.Config
	collectors []Collector
	breakers   map[string]*gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

func NewRegistry(cfg *config.Config, collectors ...Collector) *Registry {
	breakers := make(map[string]*gobreaker.CircuitBreaker, len(collectors))
	for _, c := range collectors {
		breakers[c.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        c.Name(),
			MaxRequests: 1,
			Timeout:     5 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return &Registry{
		cfg:        cfg,
		collectors: collectors,
		breakers:   breakers,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// RunAll collects, validates, and persists rows from every registered
// collector. Upstream failures are caught here and reported as zero-row
// results so any subset of sources can be down on a given day.
func (r *Registry) RunAll(ctx context.Context, events persistence.EventsRepo) map[string]Result {
	results := make(map[string]Result, len(r.collectors))
	now := time.Now().UTC()

	for _, c := range r.collectors {
		name := c.Name()
		if err := r.limiter.Wait(ctx); err != nil {
			results[name] = Result{Error: err.Error()}
			continue
		}

		raw, err := r.breakers[name].Execute(func() (interface{}, error) {
			return c.Collect(ctx)
		})
		if err != nil {
			log.Warn().Str("collector", name).Err(err).Msg("collector failed, recording zero result")
			metrics.CollectorFailures.WithLabelValues(name).Inc()
			results[name] = Result{Error: err.Error()}
			continue
		}

		candidates := raw.([]validate.Candidate)
		result := r.ingest(ctx, events, name, candidates, now)
		results[name] = result
		log.Info().
			Str("collector", name).
			Int("inserted", result.Inserted).
			Int("quarantined", result.Quarantined).
			Msg("collector done")
	}
	return results
}

func (r *Registry) ingest(ctx context.Context, events persistence.EventsRepo, source string, candidates []validate.Candidate, now time.Time) Result {
	var result Result
	for _, c := range candidates {
		if c.Source == "" {
			c.Source = source
		}
		ok, reason := validate.Check(c, now, r.cfg.StaleEventDays)
		if !ok {
			if err := events.InsertQuarantined(ctx, validate.Quarantined(c, reason)); err != nil {
				log.Error().Str("collector", source).Err(err).Msg("failed to quarantine row")
				continue
			}
			metrics.EventsQuarantined.WithLabelValues(source).Inc()
			result.Quarantined++
			continue
		}
		if err := events.Insert(ctx, validate.Event(c)); err != nil {
			log.Error().Str("collector", source).Err(err).Msg("failed to insert event")
			continue
		}
		metrics.EventsIngested.WithLabelValues(source).Inc()
		result.Inserted++
	}
	return result
}
