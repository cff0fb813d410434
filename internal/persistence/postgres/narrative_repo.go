package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

type narrativeRepo struct {
	store *Store
}

func (r *narrativeRepo) InsertBatch(ctx context.Context, rows []domain.NarrativeEvent) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO narrative_events (ts, source, sector, metric, value, payload, source_url, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare narrative insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.TS, row.Source, row.Sector, row.Metric, row.Value,
			row.Payload, row.SourceURL, row.Confidence); err != nil {
			return fmt.Errorf("failed to insert narrative event: %w", err)
		}
	}
	return tx.Commit()
}

func (r *narrativeRepo) LoadAll(ctx context.Context) ([]domain.NarrativeEvent, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, ts, source, sector, metric, value, payload, source_url, confidence
		FROM narrative_events
		ORDER BY ts, id`

	rows, err := r.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query narrative events: %w", err)
	}
	defer rows.Close()

	var out []domain.NarrativeEvent
	for rows.Next() {
		var e domain.NarrativeEvent
		if err := rows.Scan(&e.ID, &e.TS, &e.Source, &e.Sector, &e.Metric,
			&e.Value, &e.Payload, &e.SourceURL, &e.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan narrative event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating narrative events: %w", err)
	}
	return out, nil
}

type briefsRepo struct {
	store *Store
}

func (r *briefsRepo) ReplaceForDay(ctx context.Context, ts time.Time, briefs []domain.Brief) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM briefs WHERE ts = $1`, ts); err != nil {
		return fmt.Errorf("failed to clear briefs: %w", err)
	}

	for _, b := range briefs {
		sources, err := json.Marshal(b.Sources)
		if err != nil {
			return fmt.Errorf("failed to marshal brief sources: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO briefs (ts, sector, title, summary, sources)
			VALUES ($1, $2, $3, $4, $5)`,
			b.TS, b.Sector, b.Title, b.Summary, sources); err != nil {
			return fmt.Errorf("failed to insert brief: %w", err)
		}
	}
	return tx.Commit()
}
