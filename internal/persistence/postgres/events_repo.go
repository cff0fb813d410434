package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

type eventsRepo struct {
	store *Store
}

func (r *eventsRepo) Insert(ctx context.Context, e domain.Event) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO events (ts, source, sector, entity, metric, value, payload,
			source_url, fetched_at, parse_version, checksum, license, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.store.db.ExecContext(ctx, query,
		e.TS, e.Source, e.Sector, e.Entity, e.Metric, e.Value, e.Payload,
		e.SourceURL, e.FetchedAt, e.ParseVersion, e.Checksum, e.License, e.Confidence)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *eventsRepo) InsertQuarantined(ctx context.Context, e domain.QuarantinedEvent) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO events_quarantine (ts, source, sector, entity, metric, value, payload,
			source_url, fetched_at, parse_version, checksum, license, confidence, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.store.db.ExecContext(ctx, query,
		e.TS, e.Source, e.Sector, e.Entity, e.Metric, e.Value, e.Payload,
		e.SourceURL, e.FetchedAt, e.ParseVersion, e.Checksum, e.License, e.Confidence, e.Error)
	if err != nil {
		return fmt.Errorf("failed to insert quarantined event: %w", err)
	}
	return nil
}

func (r *eventsRepo) LoadAll(ctx context.Context) ([]domain.Event, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, ts, source, sector, entity, metric, value, payload,
			source_url, fetched_at, parse_version, checksum, license, confidence
		FROM events
		ORDER BY ts, id`

	rows, err := r.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID, &e.TS, &e.Source, &e.Sector, &e.Entity, &e.Metric, &e.Value,
			&e.Payload, &e.SourceURL, &e.FetchedAt, &e.ParseVersion, &e.Checksum,
			&e.License, &e.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

func (r *eventsRepo) LastFetchBySource(ctx context.Context) (map[string]time.Time, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `SELECT source, MAX(fetched_at) FROM events GROUP BY source ORDER BY source`

	rows, err := r.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source freshness: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var source string
		var fetched *time.Time
		if err := rows.Scan(&source, &fetched); err != nil {
			return nil, fmt.Errorf("failed to scan source freshness: %w", err)
		}
		if fetched != nil {
			out[source] = *fetched
		} else {
			out[source] = time.Time{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source freshness: %w", err)
	}
	return out, nil
}
