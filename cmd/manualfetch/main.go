// Command manualfetch runs a single ingestion pass from the command
// line: fetch today's schedule, enrich every fixture, and persist the
// snapshot. Useful for smoke-testing selectors or rebuilding a
// snapshot without the worker running.
package main

import (
	"context"
	"os"

	"matchcast/ingestion/internal/client"
	"matchcast/ingestion/internal/config"
	"matchcast/ingestion/internal/ingest"
	"matchcast/ingestion/internal/parser"
	"matchcast/ingestion/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	fetchClient := client.NewClient(cfg.FetchTimeout, cfg.InsecureSkipVerify)
	pageParser := parser.NewParser(cfg.BaseURL)
	snapshotStore := store.NewStore(cfg.SnapshotPath)

	session := ingest.NewSession(cfg, fetchClient, pageParser, snapshotStore)

	log.Info().
		Str("schedule_url", cfg.ScheduleURL).
		Str("snapshot", cfg.SnapshotPath).
		Int("concurrency", cfg.EnrichConcurrency).
		Msg("Running manual ingestion")

	records, err := session.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Manual ingestion failed")
		os.Exit(1)
	}

	stats := fetchClient.Stats()
	log.Info().
		Int("records", len(records)).
		Int64("successful_requests", stats.Successful).
		Int64("failed_requests", stats.Failed).
		Msg("Manual ingestion complete")
}
