package postgres

import (
	"context"
	"fmt"

	"github.com/sawpanic/leakradar/internal/domain"
)

type runsRepo struct {
	store *Store
}

func (r *runsRepo) Upsert(ctx context.Context, run domain.Run) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO runs (run_id, started_at, finished_at, code_sha, config_sha, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status`

	_, err := r.store.db.ExecContext(ctx, query,
		run.RunID, run.StartedAt, run.FinishedAt, run.CodeSHA, run.ConfigSHA, run.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}
	return nil
}
