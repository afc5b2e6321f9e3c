package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcast/ingestion/internal/models"
)

func sampleRecords() models.RecordMap {
	return models.RecordMap{
		"101": {
			EventID:         "101",
			Matchup:         "Team A – Team B",
			Competition:     "Premier League",
			TeamLogos:       []models.TeamLogo{},
			Streams:         []models.Stream{},
			StartingLineups: models.Lineups{HomeTeam: []string{}, AwayTeam: []string{}},
			LeagueTable:     []models.TableRow{},
			LastUpdated:     "2026-03-15T12:30:00Z",
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	s := NewStore(path)

	require.NoError(t, s.Save(sampleRecords()))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Team A – Team B", loaded["101"].Matchup)
}

func TestStore_LoadMissingFileIsNotInitialized(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-written.json"))

	loaded, err := s.Load()
	require.NoError(t, err, "a missing snapshot means not-yet-initialized, not an error")
	assert.Empty(t, loaded)
	assert.False(t, s.Exists())
}

func TestStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	s := NewStore(path)

	require.NoError(t, s.Save(sampleRecords()))

	updated := sampleRecords()
	record := updated["101"]
	record.Matchup = "Team A – Team C"
	updated["101"] = record
	updated["202"] = models.FixtureRecord{EventID: "202", Matchup: "Team D – Team E"}

	require.NoError(t, s.Save(updated))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Team A – Team C", loaded["101"].Matchup)
}

func TestStore_LeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "fixtures.json"))

	require.NoError(t, s.Save(sampleRecords()))
	require.NoError(t, s.Save(sampleRecords()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixtures.json", entries[0].Name())
}

func TestStore_FailedSaveLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.json")

	// A non-empty directory at the destination makes the final rename
	// fail, standing in for any post-temp-file failure.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	s := NewStore(path)
	err := s.Save(sampleRecords())
	require.Error(t, err)

	// Destination untouched and the temp file cleaned up.
	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Len(t, entries, 1, "temporary file must be removed on failure")
}

func TestStore_PersistedShapeIsKeyedObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	s := NewStore(path)
	require.NoError(t, s.Save(sampleRecords()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	record, ok := raw["101"]
	require.True(t, ok, "snapshot must be keyed by event identifier")

	for _, field := range []string{
		"event_id", "matchup", "event_url", "competition", "date_time",
		"parsed_datetime", "is_live", "team_logos", "streams",
		"starting_lineups", "league_table", "last_updated",
	} {
		assert.Contains(t, record, field)
	}
}
