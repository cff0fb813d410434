package postgres

import (
	"context"
	"fmt"

	"github.com/sawpanic/leakradar/internal/domain"
	"github.com/sawpanic/leakradar/internal/persistence"
)

type anomaliesRepo struct {
	store *Store
}

func (r *anomaliesRepo) ReplaceRun(ctx context.Context, runID string, anomalies []domain.Anomaly) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM anomalies WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear run anomalies: %w", err)
	}

	for _, a := range anomalies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO anomalies (ts, run_id, sector, metric, zscore, confidence, verified_status)
			VALUES ($1, $2, $3, $4, $5, $6, NULL)`,
			a.TS, runID, a.Sector, a.Metric, a.ZScore, a.Confidence); err != nil {
			return fmt.Errorf("failed to insert anomaly: %w", err)
		}
	}
	return tx.Commit()
}

func (r *anomaliesRepo) LoadAll(ctx context.Context) ([]domain.Anomaly, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, ts, run_id, sector, metric, zscore, confidence, verified_status
		FROM anomalies
		ORDER BY ts, id`

	var rows []domain.Anomaly
	if err := r.store.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	return rows, nil
}

// Review sets the human verdict on one anomaly. Later pipeline runs never
// touch verified_status; this is the sole write path.
func (r *anomaliesRepo) Review(ctx context.Context, id int64, status string) error {
	switch status {
	case domain.VerdictConfirm, domain.VerdictNoise, domain.VerdictBug:
	default:
		return fmt.Errorf("invalid verdict %q", status)
	}

	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx,
		`UPDATE anomalies SET verified_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to review anomaly: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read review result: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
