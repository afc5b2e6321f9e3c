// Package ingest owns the ingestion pipeline: one Session sequences
// listing fetch, schedule parse, bounded enrichment, merge and atomic
// persistence, and guards against overlapping runs.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/cache"
	"matchcast/ingestion/internal/client"
	"matchcast/ingestion/internal/config"
	"matchcast/ingestion/internal/enrich"
	"matchcast/ingestion/internal/metrics"
	"matchcast/ingestion/internal/models"
	"matchcast/ingestion/internal/parser"
	"matchcast/ingestion/internal/repository"
	"matchcast/ingestion/internal/store"
)

// ErrRunInProgress is returned when RunOnce is invoked while a previous
// run is still executing. The second invocation is a deliberate no-op,
// not a failure: it bounds outbound request volume to one run's worth
// at a time.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Session sequences one complete ingestion run. The Redis cache and the
// run-history repository are optional; a nil value disables them.
type Session struct {
	cfg         *config.Config
	client      *client.Client
	parser      *parser.Parser
	coordinator *enrich.Coordinator
	store       *store.Store
	cache       *cache.RedisCache
	runs        *repository.RunRepository

	running atomic.Bool
	now     func() time.Time
}

// NewSession wires the pipeline components into a session.
func NewSession(cfg *config.Config, c *client.Client, p *parser.Parser, st *store.Store) *Session {
	return &Session{
		cfg:         cfg,
		client:      c,
		parser:      p,
		coordinator: enrich.NewCoordinator(c, p, cfg.EnrichConcurrency, cfg.EnrichTimeout),
		store:       st,
		now:         time.Now,
	}
}

// WithCache attaches an optional Redis snapshot mirror.
func (s *Session) WithCache(rc *cache.RedisCache) *Session {
	s.cache = rc
	return s
}

// WithRunHistory attaches an optional run-history repository.
func (s *Session) WithRunHistory(runs *repository.RunRepository) *Session {
	s.runs = runs
	return s
}

// RunOnce executes one complete ingestion run and returns the merged
// record map. A concurrent invocation while a run is executing returns
// ErrRunInProgress immediately without touching persisted state. Any
// pipeline failure before persistence leaves the prior snapshot
// authoritative.
func (s *Session) RunOnce(ctx context.Context) (models.RecordMap, error) {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("Ingestion run already in progress, skipping trigger")
		metrics.RunsSkipped.Inc()
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	stats := models.RunStats{StartedAt: s.now()}

	records, err := s.run(ctx, &stats)

	stats.FinishedAt = s.now()
	clientStats := s.client.Stats()
	stats.SuccessfulRequests = clientStats.Successful
	stats.FailedRequests = clientStats.Failed

	if err != nil {
		stats.Status = models.RunStatusError
		metrics.RecordRun("error", stats.Duration().Seconds())
		log.Error().
			Err(err).
			Dur("duration", stats.Duration()).
			Msg("Ingestion run failed, prior snapshot remains authoritative")
	} else {
		stats.Status = models.RunStatusSuccess
		stats.RecordCount = len(records)
		metrics.RecordRun("success", stats.Duration().Seconds())
		metrics.FixturesInSnapshot.Set(float64(len(records)))
		log.Info().
			Int("records", len(records)).
			Int("stubs", stats.StubCount).
			Int("enriched", stats.EnrichedCount).
			Int("failed_enrichments", stats.FailedEnrichments).
			Dur("duration", stats.Duration()).
			Msg("Ingestion run complete")
	}

	s.recordRunHistory(ctx, stats)

	return records, err
}

// run is the pipeline body; RunOnce owns the guard and accounting
// around it.
func (s *Session) run(ctx context.Context, stats *models.RunStats) (models.RecordMap, error) {
	body, err := s.client.Fetch(ctx, s.cfg.ScheduleURL)
	if err != nil {
		metrics.RecordError("session", "listing_fetch")
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}

	stubs, err := s.parser.ParseSchedule(bytes.NewReader(body))
	if err != nil {
		metrics.RecordError("session", "listing_parse")
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}
	stats.StubCount = len(stubs)

	if len(stubs) == 0 {
		log.Info().Msg("No fixtures scheduled today, persisting empty snapshot")
	}

	results := s.coordinator.EnrichAll(ctx, stubs)
	for _, r := range results {
		if r.Err != nil {
			stats.FailedEnrichments++
		} else if r.Enrichment != nil {
			stats.EnrichedCount++
		}
	}

	records := Merge(results, s.now())

	if err := s.store.Save(records); err != nil {
		metrics.RecordError("session", "persist")
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.mirrorSnapshot(ctx, records)

	return records, nil
}

// mirrorSnapshot publishes the snapshot to Redis when a cache is
// configured. Mirror failures are logged and swallowed: the file on
// disk is the source of truth.
func (s *Session) mirrorSnapshot(ctx context.Context, records models.RecordMap) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetSnapshot(ctx, records); err != nil {
		metrics.RecordError("session", "cache_mirror")
		log.Warn().Err(err).Msg("Failed to mirror snapshot to Redis")
	}
}

// recordRunHistory inserts a run-history row when a repository is
// configured. History failures never affect run outcome.
func (s *Session) recordRunHistory(ctx context.Context, stats models.RunStats) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Insert(ctx, stats); err != nil {
		metrics.RecordError("session", "run_history")
		log.Warn().Err(err).Msg("Failed to record run history")
	}
}
