package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matchcast/ingestion/internal/models"
)

// RunRepository records one row per completed ingestion run. The
// history is an operator aid for spotting stale snapshots and upstream
// trouble; nothing in the pipeline reads it back.
type RunRepository struct {
	db *Database
}

// EnsureSchema creates the run history table when it does not exist.
// Called once at worker startup.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ingestion_runs (
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			stub_count INT NOT NULL,
			enriched_count INT NOT NULL,
			failed_enrichments INT NOT NULL,
			record_count INT NOT NULL,
			successful_requests BIGINT NOT NULL,
			failed_requests BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := r.db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure run history schema: %w", err)
	}

	return nil
}

// Insert records one run's stats.
func (r *RunRepository) Insert(ctx context.Context, stats models.RunStats) error {
	query := `
		INSERT INTO ingestion_runs (
			started_at, finished_at, status,
			stub_count, enriched_count, failed_enrichments, record_count,
			successful_requests, failed_requests
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		stats.StartedAt, stats.FinishedAt, stats.Status,
		stats.StubCount, stats.EnrichedCount, stats.FailedEnrichments, stats.RecordCount,
		stats.SuccessfulRequests, stats.FailedRequests,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run history row: %w", err)
	}

	return nil
}

// LastSuccessful returns the stats of the most recent successful run,
// or nil when none exists yet.
func (r *RunRepository) LastSuccessful(ctx context.Context) (*models.RunStats, error) {
	query := `
		SELECT started_at, finished_at, status,
			stub_count, enriched_count, failed_enrichments, record_count,
			successful_requests, failed_requests
		FROM ingestion_runs
		WHERE status = $1
		ORDER BY finished_at DESC
		LIMIT 1
	`

	var stats models.RunStats
	err := r.db.Pool.QueryRow(ctx, query, models.RunStatusSuccess).Scan(
		&stats.StartedAt, &stats.FinishedAt, &stats.Status,
		&stats.StubCount, &stats.EnrichedCount, &stats.FailedEnrichments, &stats.RecordCount,
		&stats.SuccessfulRequests, &stats.FailedRequests,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last successful run: %w", err)
	}

	return &stats, nil
}
