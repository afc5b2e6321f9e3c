package ingest

import (
	"time"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/enrich"
	"matchcast/ingestion/internal/models"
)

// Merge folds enrichment results into a map keyed by event identifier.
//
// Policy: a result without an identifier is dropped — it cannot be
// addressed for a future refresh. A result whose enrichment failed but
// that carries an identifier is kept with empty enrichment defaults,
// so a single slow or broken detail page never costs the fixture its
// place in the snapshot. On an identifier collision the
// later-completing result wins.
func Merge(results []enrich.Result, now time.Time) models.RecordMap {
	records := make(models.RecordMap, len(results))

	dropped := 0
	for _, r := range results {
		if r.Stub.EventID == "" {
			dropped++
			continue
		}
		records[r.Stub.EventID] = buildRecord(r, now)
	}

	if dropped > 0 {
		log.Debug().Int("count", dropped).Msg("Dropped results without event identifier")
	}

	return records
}

// buildRecord combines stub fields and enrichment fields into one
// persisted record. Missing enrichment fields default to empty
// containers, never null.
func buildRecord(r enrich.Result, now time.Time) models.FixtureRecord {
	enrichment := r.Enrichment
	if enrichment == nil {
		enrichment = models.NewEnrichmentData()
	}

	record := models.FixtureRecord{
		EventID:         r.Stub.EventID,
		Matchup:         r.Stub.Matchup,
		EventURL:        r.Stub.EventURL,
		Competition:     r.Stub.Competition,
		DateTime:        r.Stub.DateTime,
		IsLive:          r.Stub.IsLive,
		TeamLogos:       enrichment.TeamLogos,
		Streams:         enrichment.Streams,
		StartingLineups: enrichment.Lineups,
		LeagueTable:     enrichment.LeagueTable,
		LastUpdated:     now.Format(time.RFC3339),
	}

	if record.Matchup == "" {
		record.Matchup = "Unknown Match"
	}
	if record.Competition == "" {
		record.Competition = "General"
	}
	if r.Stub.ParsedTime != nil {
		record.ParsedDateTime = r.Stub.ParsedTime.Format(time.RFC3339)
	}

	return record
}
