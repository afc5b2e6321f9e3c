package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"matchcast/ingestion/internal/metrics"
)

// Browser-like identity headers sent on every request. The upstream
// site serves a captcha wall to clients without them.
const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// FetchError describes a failed page fetch: either a transport error
// (Err set) or a non-2xx response (StatusCode set).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Stats is a snapshot of the diagnostic request counters.
type Stats struct {
	Successful int64
	Failed     int64
}

// Client fetches pages from the listing site. A single Client is
// shared by all enrichment workers; http.Client is safe for concurrent
// use and reuses connections across them.
type Client struct {
	httpClient *http.Client

	mu         sync.Mutex
	successful int64
	failed     int64
}

// NewClient creates a page fetch client. When insecureSkipVerify is
// set, TLS certificate validation is disabled — required for the
// upstream's self-signed certificate and deliberately not the
// transport default.
func NewClient(timeout time.Duration, insecureSkipVerify bool) *Client {
	if insecureSkipVerify {
		log.Warn().Msg("TLS certificate verification disabled for upstream fetches")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: insecureSkipVerify,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch performs a single GET for the given URL and returns the
// response body. One attempt only: the ingestion pipeline deliberately
// carries no retry policy, a failed fetch is skipped and the next
// scheduled run picks it up. Cancelling ctx aborts the in-flight
// request.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		metrics.RecordFetch("error", time.Since(start).Seconds())
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		metrics.RecordFetch("error", time.Since(start).Seconds())
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure()
		metrics.RecordFetch(fmt.Sprintf("%d", resp.StatusCode), time.Since(start).Seconds())
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	c.recordSuccess()
	metrics.RecordFetch("ok", time.Since(start).Seconds())

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Int("size", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return body, nil
}

// Stats returns the request counters. Diagnostic only; never used for
// control flow.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Successful: c.successful, Failed: c.failed}
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	c.successful++
	c.mu.Unlock()
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}
