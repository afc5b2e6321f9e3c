// Package api serves the persisted fixture snapshot read-only. It
// never mutates the snapshot and treats its absence as "not yet
// initialized" rather than an error condition.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/models"
	"matchcast/ingestion/internal/store"
)

// competitionOrder is the frontend's preferred league ordering.
// Competitions not listed sort after all listed ones, by name.
var competitionOrder = []string{
	"Premier League", "LaLiga", "Bundesliga", "Serie A", "Eredivisie", "Ligue 1",
	"Champions League", "Europa League", "World Cup", "Afcon", "World Cup U17",
}

var competitionPriority = func() map[string]int {
	m := make(map[string]int, len(competitionOrder))
	for i, name := range competitionOrder {
		m[strings.ToLower(name)] = i
	}
	return m
}()

// matchupSeparators are tried in order when splitting a matchup label
// into home and away team names.
var matchupSeparators = []string{" – ", " - ", " vs ", " VS ", " v ", " V "}

// apiLogo is the trimmed logo shape the frontend consumes.
type apiLogo struct {
	LogoURL string `json:"logo_url"`
}

// apiFixture is the frontend-facing fixture shape served at the root
// endpoint.
type apiFixture struct {
	EventID        string          `json:"event_id"`
	Competition    string          `json:"competition"`
	Matchup        string          `json:"matchup"`
	DateTime       string          `json:"date_time"`
	ParsedDateTime string          `json:"parsed_datetime"`
	IsLive         bool            `json:"is_live"`
	TeamLogos      []apiLogo       `json:"team_logos"`
	Streams        []models.Stream `json:"streams"`
	EventURL       string          `json:"event_url"`
}

// Server serves the read-only fixture API.
type Server struct {
	store      *store.Store
	httpServer *http.Server
}

// NewServer creates a read-only API server over the given snapshot store.
func NewServer(st *store.Store, port int) *Server {
	s := &Server{store: st}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleFixtures)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the server's handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// corsMiddleware allows cross-origin reads; this API is public and
// read-only.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleFixtures serves the root endpoint: the snapshot transformed
// into the frontend's array shape, ordered by competition priority.
func (s *Server) handleFixtures(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	records, err := s.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load snapshot for API request")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to read fixture data.",
		})
		return
	}

	if len(records) == 0 && !s.store.Exists() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "Data file not yet created or empty.",
			"message": "The initial ingestion run has not finished yet. Please try again in a few minutes.",
		})
		return
	}

	fixtures := make([]apiFixture, 0, len(records))
	for _, record := range records {
		fixtures = append(fixtures, toAPIFixture(record))
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		pi, pj := lookupPriority(fixtures[i].Competition), lookupPriority(fixtures[j].Competition)
		if pi != pj {
			return pi < pj
		}
		return fixtures[i].Matchup < fixtures[j].Matchup
	})

	log.Debug().Int("count", len(fixtures)).Msg("Served fixture list")
	writeJSON(w, http.StatusOK, fixtures)
}

// handleHealth reports snapshot presence for monitoring.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Load()
	recordCount := len(records)
	if err != nil {
		recordCount = 0
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot_exists": s.store.Exists(),
		"snapshot_path":   s.store.Path(),
		"record_count":    recordCount,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

// toAPIFixture reshapes one persisted record for the frontend: the
// matchup is split into home and away names, and each side gets its
// logo from the record's team_logos by substring match.
func toAPIFixture(record models.FixtureRecord) apiFixture {
	home, away := splitMatchup(record.Matchup)

	eventURL := record.EventURL
	if eventURL == "" {
		eventURL = "#"
	}

	return apiFixture{
		EventID:        record.EventID,
		Competition:    record.Competition,
		Matchup:        record.Matchup,
		DateTime:       record.DateTime,
		ParsedDateTime: record.ParsedDateTime,
		IsLive:         record.IsLive,
		TeamLogos: []apiLogo{
			{LogoURL: findLogo(record.TeamLogos, home)},
			{LogoURL: findLogo(record.TeamLogos, away)},
		},
		Streams:  record.Streams,
		EventURL: eventURL,
	}
}

// splitMatchup extracts home and away team names from a matchup label.
// Without a recognized separator both sides are the whole label.
func splitMatchup(matchup string) (string, string) {
	for _, sep := range matchupSeparators {
		if strings.Contains(matchup, sep) {
			parts := strings.SplitN(matchup, sep, 2)
			return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		}
	}
	trimmed := strings.TrimSpace(matchup)
	return trimmed, trimmed
}

// findLogo returns the first logo whose team name contains the given
// name, case-insensitively. Empty when no logo matches.
func findLogo(logos []models.TeamLogo, team string) string {
	if team == "" {
		return ""
	}
	needle := strings.ToLower(team)
	for _, logo := range logos {
		if strings.Contains(strings.ToLower(logo.TeamName), needle) {
			return logo.LogoURL
		}
	}
	return ""
}

func lookupPriority(competition string) int {
	if p, ok := competitionPriority[strings.ToLower(competition)]; ok {
		return p
	}
	return len(competitionOrder)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}
