// Package enrich fans detail-page fetches out over a bounded worker
// pool and collects enrichment results as they complete.
package enrich

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/client"
	"matchcast/ingestion/internal/metrics"
	"matchcast/ingestion/internal/models"
	"matchcast/ingestion/internal/parser"
)

// Result is the outcome of one enrichment task. Enrichment is nil when
// the task failed or the stub had no detail URL; Err carries the cause
// in the failure case so callers can tell "unenrichable" from "failed".
type Result struct {
	Stub       models.FixtureStub
	Enrichment *models.EnrichmentData
	Err        error
}

// Coordinator runs detail fetch-and-parse tasks for a set of stubs
// under a fixed concurrency bound.
type Coordinator struct {
	client      *client.Client
	parser      *parser.Parser
	concurrency int
	taskTimeout time.Duration
}

// NewCoordinator creates an enrichment coordinator. concurrency bounds
// the number of in-flight detail fetches; taskTimeout bounds the
// wall-clock exposure to a single slow upstream response.
func NewCoordinator(c *client.Client, p *parser.Parser, concurrency int, taskTimeout time.Duration) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Coordinator{
		client:      c,
		parser:      p,
		concurrency: concurrency,
		taskTimeout: taskTimeout,
	}
}

// EnrichAll fetches and parses the detail page for every stub with a
// detail URL, at most c.concurrency at a time. Results arrive in
// completion order, not submission order; downstream merging must not
// depend on ordering. A failed or timed-out task degrades to a Result
// without enrichment — it never fails the run and never delays or
// drops sibling tasks.
func (c *Coordinator) EnrichAll(ctx context.Context, stubs []models.FixtureStub) []Result {
	if len(stubs) == 0 {
		return nil
	}

	results := make(chan Result, len(stubs))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for _, stub := range stubs {
		if stub.EventURL == "" {
			// Nothing to fetch; pass the stub through unenriched.
			results <- Result{Stub: stub}
			continue
		}

		wg.Add(1)
		go func(stub models.FixtureStub) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- Result{Stub: stub, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			results <- c.enrichOne(ctx, stub)
		}(stub)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]Result, 0, len(stubs))
	for r := range results {
		collected = append(collected, r)
		if len(collected) == len(stubs) {
			break
		}
	}
	return collected
}

// enrichOne runs a single fetch-and-parse task under the per-task
// timeout. The timeout cancels the underlying request rather than
// abandoning it mid-flight.
func (c *Coordinator) enrichOne(ctx context.Context, stub models.FixtureStub) Result {
	taskCtx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	body, err := c.client.Fetch(taskCtx, stub.EventURL)
	if err != nil {
		log.Warn().
			Err(err).
			Str("event_id", stub.EventID).
			Str("url", stub.EventURL).
			Msg("Detail fetch failed, keeping stub unenriched")
		metrics.RecordEnrichTask("fetch_error")
		return Result{Stub: stub, Err: err}
	}

	data, err := c.parser.ParseDetail(bytes.NewReader(body))
	if err != nil {
		log.Warn().
			Err(err).
			Str("event_id", stub.EventID).
			Msg("Detail parse failed, keeping stub unenriched")
		metrics.RecordEnrichTask("parse_error")
		return Result{Stub: stub, Err: err}
	}

	metrics.RecordEnrichTask("ok")
	return Result{Stub: stub, Enrichment: data}
}
