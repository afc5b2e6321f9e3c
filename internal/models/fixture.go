package models

import "time"

// FixtureStub is one scheduled event as described on the listing page,
// before any detail enrichment. EventID may be empty when the listing
// row's href carries no event identifier.
type FixtureStub struct {
	EventID     string
	Matchup     string
	EventURL    string
	Competition string
	DateTime    string
	ParsedTime  *time.Time
	IsLive      bool
}

// TeamLogo pairs a team name with its crest image URL.
type TeamLogo struct {
	TeamName string `json:"team_name"`
	LogoURL  string `json:"logo_url"`
}

// Stream describes one broadcast link on an event detail page.
type Stream struct {
	Language    string `json:"language"`
	Bitrate     string `json:"bitrate"`
	StreamURL   string `json:"stream_url"`
	StreamTitle string `json:"stream_title"`
	StreamType  string `json:"stream_type"`
}

// Lineups holds the starting rosters, in listed order.
type Lineups struct {
	HomeTeam []string `json:"home_team"`
	AwayTeam []string `json:"away_team"`
}

// TableRow is one row of the competition standings table. Values are
// kept as the page renders them.
type TableRow struct {
	Pos    string `json:"pos"`
	Team   string `json:"team"`
	Played string `json:"played"`
	Pts    string `json:"pts"`
}

// EnrichmentData is everything extracted from a single event detail
// page. It has no identity of its own and is always folded into a stub.
// All containers are non-nil; a section the page lacked is simply empty.
type EnrichmentData struct {
	TeamLogos   []TeamLogo
	Streams     []Stream
	Lineups     Lineups
	LeagueTable []TableRow
}

// NewEnrichmentData returns an EnrichmentData with every container
// initialized, so partial parses never surface nil fields.
func NewEnrichmentData() *EnrichmentData {
	return &EnrichmentData{
		TeamLogos:   []TeamLogo{},
		Streams:     []Stream{},
		Lineups:     Lineups{HomeTeam: []string{}, AwayTeam: []string{}},
		LeagueTable: []TableRow{},
	}
}

// FixtureRecord is the persisted unit: stub fields plus enrichment
// fields plus the time this record was built. Field names are part of
// the downstream consumer contract and must not change.
type FixtureRecord struct {
	EventID         string     `json:"event_id"`
	Matchup         string     `json:"matchup"`
	EventURL        string     `json:"event_url"`
	Competition     string     `json:"competition"`
	DateTime        string     `json:"date_time"`
	ParsedDateTime  string     `json:"parsed_datetime"`
	IsLive          bool       `json:"is_live"`
	TeamLogos       []TeamLogo `json:"team_logos"`
	Streams         []Stream   `json:"streams"`
	StartingLineups Lineups    `json:"starting_lineups"`
	LeagueTable     []TableRow `json:"league_table"`
	LastUpdated     string     `json:"last_updated"`
}

// RecordMap is the persisted snapshot, keyed by event identifier.
// Invariant: at most one record per identifier; stubs without an
// identifier are never represented here.
type RecordMap map[string]FixtureRecord
