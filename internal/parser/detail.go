package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"matchcast/ingestion/internal/models"
)

var lineupHeadingPattern = regexp.MustCompile(`(?i)starting lineup`)

// ParseDetail extracts enrichment data from one event detail page.
// Every section is optional: a page missing standings, lineups or
// streams yields an EnrichmentData with those containers empty, and a
// malformed row never aborts the rest of the parse.
func (p *Parser) ParseDetail(r io.Reader) (*models.EnrichmentData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	data := models.NewEnrichmentData()
	data.TeamLogos = p.extractTeamLogos(doc)
	data.Streams = p.extractStreams(doc)
	data.Lineups = extractLineups(doc)
	data.LeagueTable = extractLeagueTable(doc)

	return data, nil
}

// extractTeamLogos collects every team crest image, resolving
// protocol-relative and root-relative sources against the site base.
func (p *Parser) extractTeamLogos(doc *goquery.Document) []models.TeamLogo {
	logos := []models.TeamLogo{}

	doc.Find(`img[itemprop="image"]`).Each(func(_ int, img *goquery.Selection) {
		alt, ok := img.Attr("alt")
		if !ok {
			return
		}
		logos = append(logos, models.TeamLogo{
			TeamName: strings.TrimSpace(alt),
			LogoURL:  p.resolveURL(img.AttrOr("src", "")),
		})
	})

	return logos
}

// extractStreams reads the stream rows from the links block. Rows with
// fewer than 7 cells do not carry a full stream descriptor and are
// skipped.
func (p *Parser) extractStreams(doc *goquery.Document) []models.Stream {
	streams := []models.Stream{}

	doc.Find("div#links_block table.lnktbj").Each(func(_ int, table *goquery.Selection) {
		cells := table.Find("td")
		if cells.Length() < 7 {
			return
		}

		var stream models.Stream

		if flag := cells.Eq(0).Find("img").First(); flag.Length() > 0 {
			stream.Language = flag.AttrOr("title", "")
		}

		stream.Bitrate = cells.Eq(1).AttrOr("title", "")

		if play := cells.Eq(5).Find("a").First(); play.Length() > 0 {
			stream.StreamURL = p.resolveURL(play.AttrOr("href", ""))
			stream.StreamTitle = play.AttrOr("title", "")
		}

		stream.StreamType = strings.TrimSpace(cells.Eq(6).Text())

		streams = append(streams, stream)
	})

	return streams
}

// extractLineups locates the starting-lineup heading and reads the two
// roster cells from the row that follows it. The first cell is the home
// roster, the second the away roster, each a newline-separated block.
func extractLineups(doc *goquery.Document) models.Lineups {
	lineups := models.Lineups{HomeTeam: []string{}, AwayTeam: []string{}}

	var heading *goquery.Selection
	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if lineupHeadingPattern.MatchString(span.Text()) {
			heading = span
			return false
		}
		return true
	})
	if heading == nil {
		return lineups
	}

	row := heading.Closest("tr").Next()
	if row.Length() == 0 {
		return lineups
	}

	cells := row.Find("td.small")
	if cells.Length() > 0 {
		lineups.HomeTeam = textLines(cells.Eq(0))
	}
	if cells.Length() > 1 {
		lineups.AwayTeam = textLines(cells.Eq(1))
	}

	return lineups
}

// extractLeagueTable reads the standings table, located by its "Pl"
// (played) header cell. Rows with fewer than 6 cells, or without the
// position and team markers, are not standings rows and are skipped.
func extractLeagueTable(doc *goquery.Document) []models.TableRow {
	standings := []models.TableRow{}

	var header *goquery.Selection
	doc.Find("b").EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if strings.TrimSpace(b.Text()) == "Pl" {
			header = b
			return false
		}
		return true
	})
	if header == nil {
		return standings
	}

	header.Closest("table").Find("tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 6 {
			return
		}

		pos := cols.Eq(0).Find("span.date").First()
		team := cols.Eq(1).Find("a.ps").First()
		if pos.Length() == 0 || team.Length() == 0 {
			return
		}

		entry := models.TableRow{
			Pos:    strings.TrimSpace(pos.Text()),
			Team:   strings.TrimSpace(team.Text()),
			Played: strings.TrimSpace(cols.Eq(2).Text()),
		}
		if cols.Length() > 7 {
			entry.Pts = strings.TrimSpace(cols.Eq(7).Text())
		}

		standings = append(standings, entry)
	})

	return standings
}
