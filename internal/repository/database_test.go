package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcast/ingestion/internal/models"
)

// Integration tests for the run history. They need a reachable
// Postgres; set TEST_DATABASE_HOST to enable them.

func setupTestDB(t *testing.T) (*Database, context.Context) {
	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST not set, skipping database integration tests")
	}

	ctx := context.Background()

	cfg := Config{
		Host:     host,
		Port:     "5432",
		Database: "matchcast_test",
		User:     "matchcast_user",
		Password: "matchcast_password",
		SSLMode:  "disable",
	}

	db, err := NewDatabase(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, db.Runs.EnsureSchema(ctx))

	return db, ctx
}

func teardownTestDB(t *testing.T, db *Database) {
	db.Close()
}

func TestDatabaseConnection(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Health(ctx)
	assert.NoError(t, err, "Database health check should pass")
}

func TestRunRepository_InsertAndLastSuccessful(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	stats := models.RunStats{
		StartedAt:          now.Add(-30 * time.Second),
		FinishedAt:         now,
		Status:             models.RunStatusSuccess,
		StubCount:          12,
		EnrichedCount:      10,
		FailedEnrichments:  2,
		RecordCount:        12,
		SuccessfulRequests: 13,
		FailedRequests:     2,
	}

	require.NoError(t, db.Runs.Insert(ctx, stats))

	last, err := db.Runs.LastSuccessful(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, stats.RecordCount, last.RecordCount)
	assert.Equal(t, models.RunStatusSuccess, last.Status)
}
