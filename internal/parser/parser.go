// Package parser turns listing-page and detail-page documents from the
// broadcast site into fixture stubs and enrichment data. Selectors
// follow the site's markup; any row or section that does not match the
// expected shape is skipped rather than failing the whole parse.
package parser

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Parser holds the site base URL used to resolve relative links and a
// clock for the "is today" predicate. The clock is injectable for tests.
type Parser struct {
	baseURL string
	now     func() time.Time
}

// NewParser creates a parser for the given site base URL.
func NewParser(baseURL string) *Parser {
	return &Parser{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// WithClock overrides the parser's clock. Used by tests to pin "today".
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// resolveURL resolves protocol-relative and root-relative hrefs against
// the site base URL. Absolute URLs pass through unchanged.
func (p *Parser) resolveURL(href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return p.baseURL + href
	default:
		return href
	}
}

// textLines returns the selection's text split at <br> boundaries, with
// each line trimmed and blank lines dropped.
func textLines(sel *goquery.Selection) []string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "br" {
			b.WriteString("\n")
			return
		}
		b.WriteString(c.Text())
	})

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
