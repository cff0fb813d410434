package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sawpanic/leakradar/internal/domain"
)

type featuresRepo struct {
	store *Store
}

// ReplaceAll rewrites the feature table inside one transaction: delete the
// current window, insert the fresh grid.
func (r *featuresRepo) ReplaceAll(ctx context.Context, rows []domain.FeatureRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout*time.Duration(len(rows)/500+1))
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM features`); err != nil {
		return fmt.Errorf("failed to clear features: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO features (ts, sector, new_papers_7d, new_papers_30d,
			recruiting_trials_30d, jobs_keyword_count, github_stars_30d,
			grants_90d, consensus_disagreement, confidence_mean)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.TS, row.Sector, row.NewPapers7d, row.NewPapers30d,
			row.RecruitingTrials30d, row.JobsKeywordCount, row.GithubStars30d,
			row.Grants90d, row.ConsensusDisagreement, row.ConfidenceMean); err != nil {
			return fmt.Errorf("failed to insert feature row: %w", err)
		}
	}
	return tx.Commit()
}

func (r *featuresRepo) LoadAll(ctx context.Context) ([]domain.FeatureRow, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ts, sector, new_papers_7d, new_papers_30d, recruiting_trials_30d,
			jobs_keyword_count, github_stars_30d, grants_90d,
			consensus_disagreement, confidence_mean
		FROM features
		ORDER BY ts, sector`

	dbRows, err := r.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer dbRows.Close()

	var rows []domain.FeatureRow
	for dbRows.Next() {
		var row domain.FeatureRow
		if err := dbRows.Scan(
			&row.TS, &row.Sector, &row.NewPapers7d, &row.NewPapers30d,
			&row.RecruitingTrials30d, &row.JobsKeywordCount, &row.GithubStars30d,
			&row.Grants90d, &row.ConsensusDisagreement, &row.ConfidenceMean); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}
	return rows, nil
}

type scoresRepo struct {
	store *Store
}

func (r *scoresRepo) ReplaceAll(ctx context.Context, rows []domain.ScoreRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.store.timeout*time.Duration(len(rows)/500+1))
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scores (ts, sector, score, components, mean_confidence)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("failed to prepare score insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		components, err := json.Marshal(row.Components)
		if err != nil {
			return fmt.Errorf("failed to marshal components: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			row.TS, row.Sector, row.Score, components, row.MeanConfidence); err != nil {
			return fmt.Errorf("failed to insert score row: %w", err)
		}
	}
	return tx.Commit()
}

func (r *scoresRepo) LoadAll(ctx context.Context) ([]domain.ScoreRow, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ts, sector, score, components, mean_confidence
		FROM scores
		ORDER BY ts, sector`

	dbRows, err := r.store.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer dbRows.Close()

	var rows []domain.ScoreRow
	for dbRows.Next() {
		var row domain.ScoreRow
		var components []byte
		if err := dbRows.Scan(&row.TS, &row.Sector, &row.Score, &components, &row.MeanConfidence); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		if len(components) > 0 {
			if err := json.Unmarshal(components, &row.Components); err != nil {
				return nil, fmt.Errorf("failed to unmarshal components: %w", err)
			}
		}
		rows = append(rows, row)
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return rows, nil
}

type comparisonsRepo struct {
	store *Store
}

// ReplaceForDay deletes then reinserts the snapshot for one timestamp, so a
// rerun for the same day never duplicates history.
func (r *comparisonsRepo) ReplaceForDay(ctx context.Context, ts time.Time, rows []domain.ComparisonRow) error {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	tx, err := r.store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comparisons WHERE ts = $1`, ts); err != nil {
		return fmt.Errorf("failed to clear comparisons: %w", err)
	}

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO comparisons (ts, sector, hype_index, reality_index, gap)
			VALUES ($1, $2, $3, $4, $5)`,
			row.TS, row.Sector, row.HypeIndex, row.RealityIndex, row.Gap); err != nil {
			return fmt.Errorf("failed to insert comparison row: %w", err)
		}
	}
	return tx.Commit()
}

func (r *comparisonsRepo) LoadAll(ctx context.Context) ([]domain.ComparisonRow, error) {
	ctx, cancel := r.store.withTimeout(ctx)
	defer cancel()

	query := `SELECT ts, sector, hype_index, reality_index, gap FROM comparisons ORDER BY ts, sector`

	var rows []domain.ComparisonRow
	if err := r.store.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to query comparisons: %w", err)
	}
	return rows, nil
}
