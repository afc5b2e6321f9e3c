// Package scheduler triggers ingestion runs on a cron interval. It is
// thin plumbing around the session: overlap protection lives in the
// session's run guard, not here.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/config"
	"matchcast/ingestion/internal/ingest"
)

// Scheduler fires the ingestion session on the configured cron schedule.
type Scheduler struct {
	cfg     *config.Config
	session *ingest.Session
	cron    *cron.Cron
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg *config.Config, session *ingest.Session) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		session: session,
		cron:    cron.New(),
	}
}

// Start schedules periodic ingestion runs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.ScrapeCron, func() {
		s.trigger(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule ingestion runs: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.ScrapeCron).
		Msg("Ingestion runs scheduled")

	return nil
}

// Stop stops the scheduler. A run already in flight finishes on its own.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	log.Info().Msg("Scheduler stopped")
}

// trigger fires one ingestion run. A run still in progress from the
// previous fire makes this a logged no-op.
func (s *Scheduler) trigger(ctx context.Context) {
	if _, err := s.session.RunOnce(ctx); err != nil {
		if errors.Is(err, ingest.ErrRunInProgress) {
			log.Info().Msg("Previous ingestion run still executing, trigger skipped")
			return
		}
		log.Error().Err(err).Msg("Scheduled ingestion run failed")
	}
}
