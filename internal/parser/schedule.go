package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/models"
)

// ErrNoFixtureList signals that the listing page carried no broadcast
// list at all. Callers can distinguish this ("page shape unexpected")
// from a page that parsed but had nothing scheduled today.
var ErrNoFixtureList = errors.New("no broadcast list found on listing page")

var (
	eventIDPattern  = regexp.MustCompile(`/eventinfo/(\d+)`)
	dateTimePattern = regexp.MustCompile(`(\d+)\s+([A-Za-z]+)\s+at\s+(\d+:\d+)`)
)

// scheduleTimeLayout matches the listing page's "2 January at 15:04"
// description format. The page omits the year; it defaults to the
// current one.
const scheduleTimeLayout = "2 January at 15:04"

// ParseSchedule extracts today's fixture stubs from one listing-page
// document, in page order, deduplicated by event identifier (first
// occurrence wins).
func (p *Parser) ParseSchedule(r io.Reader) ([]models.FixtureStub, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	if doc.Find("ul.broadcasts").Length() == 0 {
		return nil, ErrNoFixtureList
	}

	now := p.now()
	seen := make(map[string]bool)
	var stubs []models.FixtureStub

	doc.Find("ul.broadcasts li").Each(func(_ int, row *goquery.Selection) {
		stub, ok := p.parseFixtureRow(row, now)
		if !ok {
			return
		}
		if !isToday(stub, now) {
			return
		}
		if stub.EventID != "" && seen[stub.EventID] {
			return
		}
		if stub.EventID != "" {
			seen[stub.EventID] = true
		}
		stubs = append(stubs, stub)
	})

	log.Debug().Int("count", len(stubs)).Msg("Listing page parsed")
	return stubs, nil
}

// parseFixtureRow extracts one stub from a listing row. Rows without a
// matchup link are not fixtures (section headers, ads) and are skipped.
func (p *Parser) parseFixtureRow(row *goquery.Selection, now time.Time) (models.FixtureStub, bool) {
	link := row.Find("a.live").First()
	if link.Length() == 0 {
		link = row.Find("a.bottomgray").First()
	}
	if link.Length() == 0 {
		return models.FixtureStub{}, false
	}

	stub := models.FixtureStub{
		Matchup: strings.TrimSpace(link.Text()),
	}

	if href, ok := link.Attr("href"); ok && href != "" {
		stub.EventURL = p.resolveURL(href)
		if m := eventIDPattern.FindStringSubmatch(href); m != nil {
			stub.EventID = m[1]
		}
	}

	if desc := row.Find("span.evdesc").First(); desc.Length() > 0 {
		lines := textLines(desc)
		if len(lines) > 0 {
			stub.DateTime = lines[0]
			stub.ParsedTime = parseScheduleTime(lines[0], now)
		}
		if len(lines) >= 2 {
			stub.Competition = strings.Trim(lines[1], "()")
		}
	}

	stub.IsLive = row.Find(`img[src*="live.gif"]`).Length() > 0

	return stub, true
}

// parseScheduleTime parses the raw "<day> <month> at <HH:MM>" portion
// of a description line. Returns nil when the line does not match; the
// caller then falls back to substring inspection of the raw text.
func parseScheduleTime(raw string, now time.Time) *time.Time {
	m := dateTimePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}

	parsed, err := time.Parse(scheduleTimeLayout, fmt.Sprintf("%s %s at %s", m[1], m[2], m[3]))
	if err != nil {
		return nil
	}

	t := time.Date(now.Year(), parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	return &t
}

// isToday reports whether a stub belongs to the current calendar day.
// Prefers the normalized timestamp; falls back to looking for today's
// day-of-month as a token in the raw date text.
func isToday(stub models.FixtureStub, now time.Time) bool {
	if stub.ParsedTime != nil {
		return stub.ParsedTime.Day() == now.Day()
	}
	if stub.DateTime != "" {
		return strings.Contains(stub.DateTime, strconv.Itoa(now.Day()))
	}
	return false
}
