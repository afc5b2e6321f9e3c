package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcast/ingestion/internal/enrich"
	"matchcast/ingestion/internal/models"
)

func mergeClock() time.Time {
	return time.Date(2026, time.March, 15, 12, 30, 0, 0, time.UTC)
}

func enrichedResult(id string) enrich.Result {
	data := models.NewEnrichmentData()
	data.TeamLogos = append(data.TeamLogos, models.TeamLogo{TeamName: "Team A", LogoURL: "https://cdn.example.test/a.png"})
	data.Streams = append(data.Streams, models.Stream{Language: "English", StreamURL: "https://example.test/play/1"})

	return enrich.Result{
		Stub: models.FixtureStub{
			EventID:     id,
			Matchup:     "Team A – Team B",
			EventURL:    "https://example.test/eventinfo/" + id + "/",
			Competition: "Premier League",
			DateTime:    "15 March at 18:00",
		},
		Enrichment: data,
	}
}

func TestMerge_BuildsKeyedRecords(t *testing.T) {
	records := Merge([]enrich.Result{enrichedResult("101"), enrichedResult("102")}, mergeClock())

	require.Len(t, records, 2)

	record, ok := records["101"]
	require.True(t, ok)
	assert.Equal(t, "101", record.EventID)
	assert.Equal(t, "Team A – Team B", record.Matchup)
	assert.Equal(t, "Premier League", record.Competition)
	assert.Len(t, record.TeamLogos, 1)
	assert.Len(t, record.Streams, 1)
	assert.Equal(t, mergeClock().Format(time.RFC3339), record.LastUpdated)
}

func TestMerge_DropsResultsWithoutIdentifier(t *testing.T) {
	noID := enrichedResult("")

	records := Merge([]enrich.Result{noID, enrichedResult("101")}, mergeClock())

	// Never a partial/null record for an unaddressable fixture.
	require.Len(t, records, 1)
	_, ok := records["101"]
	assert.True(t, ok)
}

func TestMerge_FailedEnrichmentKeepsStubWithEmptyDefaults(t *testing.T) {
	failed := enrich.Result{
		Stub: models.FixtureStub{
			EventID:  "103",
			Matchup:  "Team C – Team D",
			EventURL: "https://example.test/eventinfo/103/",
		},
		Err: errors.New("fetch timed out"),
	}

	records := Merge([]enrich.Result{failed}, mergeClock())

	record, ok := records["103"]
	require.True(t, ok)
	assert.NotNil(t, record.TeamLogos)
	assert.NotNil(t, record.Streams)
	assert.NotNil(t, record.LeagueTable)
	assert.NotNil(t, record.StartingLineups.HomeTeam)
	assert.Empty(t, record.TeamLogos)
	assert.Empty(t, record.Streams)
	assert.Empty(t, record.LeagueTable)
}

func TestMerge_LaterResultWinsOnCollision(t *testing.T) {
	first := enrichedResult("104")
	second := enrichedResult("104")
	second.Stub.Matchup = "Later Label"

	records := Merge([]enrich.Result{first, second}, mergeClock())

	require.Len(t, records, 1)
	assert.Equal(t, "Later Label", records["104"].Matchup)
}

func TestMerge_DefaultsForEmptyLabels(t *testing.T) {
	result := enrich.Result{Stub: models.FixtureStub{EventID: "105"}}

	records := Merge([]enrich.Result{result}, mergeClock())

	record := records["105"]
	assert.Equal(t, "Unknown Match", record.Matchup)
	assert.Equal(t, "General", record.Competition)
	assert.Empty(t, record.ParsedDateTime)
}
