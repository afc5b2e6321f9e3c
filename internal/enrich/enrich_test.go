package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchcast/ingestion/internal/client"
	"matchcast/ingestion/internal/models"
	"matchcast/ingestion/internal/parser"
)

const detailBody = `
<html><body>
<img itemprop="image" alt="Team A" src="/img/a.png">
<div id="links_block">
  <table class="lnktbj"><tr>
    <td><img title="English" src="//f.gif"></td>
    <td title="2500 kbps">2500</td>
    <td></td><td></td><td></td>
    <td><a href="/webplayer.php?c=1" title="Stream 1">Play</a></td>
    <td>Browser</td>
  </tr></table>
</div>
</body></html>`

func newCoordinator(t *testing.T, baseURL string, concurrency int, timeout time.Duration) *Coordinator {
	t.Helper()
	c := client.NewClient(5*time.Second, false)
	p := parser.NewParser(baseURL)
	return NewCoordinator(c, p, concurrency, timeout)
}

func stubWithURL(id, url string) models.FixtureStub {
	return models.FixtureStub{EventID: id, Matchup: "Team A – Team B", EventURL: url}
}

func TestEnrichAll_EnrichesEveryStub(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, detailBody)
	}))
	defer server.Close()

	coord := newCoordinator(t, server.URL, 4, 5*time.Second)

	stubs := []models.FixtureStub{
		stubWithURL("1", server.URL+"/eventinfo/1/"),
		stubWithURL("2", server.URL+"/eventinfo/2/"),
		stubWithURL("3", server.URL+"/eventinfo/3/"),
	}

	results := coord.EnrichAll(context.Background(), stubs)
	require.Len(t, results, 3)

	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Enrichment)
		assert.Len(t, r.Enrichment.TeamLogos, 1)
		assert.Len(t, r.Enrichment.Streams, 1)
	}
}

func TestEnrichAll_StubWithoutURLPassesThrough(t *testing.T) {
	coord := newCoordinator(t, "https://example.test", 2, time.Second)

	results := coord.EnrichAll(context.Background(), []models.FixtureStub{
		{EventID: "9", Matchup: "Team X – Team Y"},
	})

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Nil(t, results[0].Enrichment)
	assert.Equal(t, "9", results[0].Stub.EventID)
}

func TestEnrichAll_TimeoutDoesNotAffectSiblings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(2 * time.Second)
		}
		fmt.Fprint(w, detailBody)
	}))
	defer server.Close()

	coord := newCoordinator(t, server.URL, 4, 300*time.Millisecond)

	stubs := []models.FixtureStub{
		stubWithURL("1", server.URL+"/fast"),
		stubWithURL("2", server.URL+"/slow"),
		stubWithURL("3", server.URL+"/fast"),
	}

	results := coord.EnrichAll(context.Background(), stubs)
	require.Len(t, results, 3)

	byID := make(map[string]Result)
	for _, r := range results {
		byID[r.Stub.EventID] = r
	}

	assert.Error(t, byID["2"].Err, "slow task should time out")
	assert.Nil(t, byID["2"].Enrichment)

	for _, id := range []string{"1", "3"} {
		require.NoError(t, byID[id].Err)
		require.NotNil(t, byID[id].Enrichment, "sibling tasks must not be affected by the timeout")
	}
}

func TestEnrichAll_FetchFailureDegradesToUnenriched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	coord := newCoordinator(t, server.URL, 2, time.Second)

	results := coord.EnrichAll(context.Background(), []models.FixtureStub{
		stubWithURL("1", server.URL+"/eventinfo/1/"),
	})

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Enrichment)
	assert.Equal(t, "1", results[0].Stub.EventID)
}

func TestEnrichAll_RespectsConcurrencyBound(t *testing.T) {
	var mu sync.Mutex
	inflight, maxInflight := 0, 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inflight++
		if inflight > maxInflight {
			maxInflight = inflight
		}
		mu.Unlock()

		time.Sleep(50 * time.Millisecond)

		mu.Lock()
		inflight--
		mu.Unlock()

		fmt.Fprint(w, detailBody)
	}))
	defer server.Close()

	coord := newCoordinator(t, server.URL, 2, 5*time.Second)

	stubs := make([]models.FixtureStub, 0, 8)
	for i := 0; i < 8; i++ {
		stubs = append(stubs, stubWithURL(fmt.Sprintf("%d", i), fmt.Sprintf("%s/eventinfo/%d/", server.URL, i)))
	}

	results := coord.EnrichAll(context.Background(), stubs)
	require.Len(t, results, 8)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, maxInflight, 2, "no more than the concurrency bound may be in flight")
	assert.Greater(t, maxInflight, 1, "detail fetches must not be serialized")
}
