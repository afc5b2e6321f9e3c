package models

import "time"

// RunStats summarizes one complete ingestion run. It is what the
// run-history repository persists and what the manual fetch CLI prints.
type RunStats struct {
	StartedAt          time.Time
	FinishedAt         time.Time
	Status             string
	StubCount          int
	EnrichedCount      int
	FailedEnrichments  int
	RecordCount        int
	SuccessfulRequests int64
	FailedRequests     int64
}

// Run statuses recorded in the run history.
const (
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Duration returns the wall-clock time the run took.
func (s RunStats) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
