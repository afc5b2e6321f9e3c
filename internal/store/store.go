// Package store persists the merged fixture snapshot as a single JSON
// document, atomically: readers only ever observe the previous complete
// snapshot or the new complete snapshot, never a partial write.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/models"
)

// Store reads and writes the fixture snapshot at a fixed path.
type Store struct {
	path string
}

// NewStore creates a snapshot store for the given destination path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot destination path.
func (s *Store) Path() string {
	return s.path
}

// Save writes the record map to the destination atomically: serialize
// to a temporary file in the same directory, flush and sync it to
// storage, then rename it over the destination. On any failure the
// temporary file is removed and the destination remains byte-for-byte
// as it was before the call.
func (s *Store) Save(records models.RecordMap) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary snapshot file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temporary snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	log.Debug().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Snapshot persisted")

	return nil
}

// Load reads the current snapshot. A missing file means the first run
// has not completed yet and yields an empty map, not an error.
func (s *Store) Load() (models.RecordMap, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.RecordMap{}, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var records models.RecordMap
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}

	return records, nil
}

// Exists reports whether a snapshot has been persisted yet.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
