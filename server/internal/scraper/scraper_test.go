package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/queuewatch/queuewatch/server/internal/config"
)

// parkFeed is a trimmed queue-times payload.
const parkFeed = `{
	"lands": [
		{"id": 1, "name": "Galaxy's Edge", "rides": [
			{"id": 100, "name": "Rise of the Resistance", "is_open": true, "wait_time": 95, "last_updated": "2026-03-14T15:00:00.000Z"}
		]}
	],
	"rides": []
}`

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	return New(config.SourceConfig{
		BaseURL:   url,
		UserAgent: "Mozilla/5.0",
		Timeout:   timeout,
		RateLimit: 100,
	}, 4)
}

func TestScrape_Success(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(parkFeed))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/", time.Second)
	res := c.Scrape(context.Background(), config.Park{Name: "Hollywood Studios", ID: 7})

	if !res.OK() {
		t.Fatalf("res.Err = %v", res.Err)
	}
	if gotPath != "/parks/7/queue_times.json" {
		t.Errorf("path: got %q, want /parks/7/queue_times.json", gotPath)
	}
	if gotUA != "Mozilla/5.0" {
		t.Errorf("User-Agent: got %q, want Mozilla/5.0", gotUA)
	}
	if len(res.Rides) != 1 || res.Rides[0].Name != "Rise of the Resistance" || res.Rides[0].Wait != 95 {
		t.Errorf("rides: got %+v", res.Rides)
	}
	if res.Park.Name != "Hollywood Studios" {
		t.Errorf("park: got %q", res.Park.Name)
	}
	if res.ScrapedAt.IsZero() {
		t.Error("ScrapedAt not set")
	}
}

func TestScrape_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := newTestClient(t, srv.URL, time.Second).Scrape(context.Background(), config.Park{Name: "EPCOT", ID: 5})
	if res.OK() {
		t.Fatal("res.Err should be set on HTTP 503")
	}
	if len(res.Rides) != 0 {
		t.Errorf("rides: got %d, want 0", len(res.Rides))
	}
}

func TestScrape_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	res := newTestClient(t, srv.URL, time.Second).Scrape(context.Background(), config.Park{Name: "EPCOT", ID: 5})
	if res.OK() {
		t.Fatal("res.Err should be set for a non-JSON body")
	}
}

func TestScrape_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	res := newTestClient(t, srv.URL, 50*time.Millisecond).Scrape(context.Background(), config.Park{Name: "EPCOT", ID: 5})
	if res.OK() {
		t.Fatal("res.Err should be set when the source times out")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("scrape took %v, timeout not applied", elapsed)
	}
}

func TestScrape_ConnectFailure(t *testing.T) {
	res := newTestClient(t, "http://127.0.0.1:1", time.Second).Scrape(context.Background(), config.Park{Name: "EPCOT", ID: 5})
	if res.OK() {
		t.Fatal("res.Err should be set when the endpoint is unreachable")
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New(config.SourceConfig{BaseURL: "http://x"}, 0)
	if c.timeout != defaultScrapeTimeout {
		t.Errorf("timeout: got %v, want %v", c.timeout, defaultScrapeTimeout)
	}
	if got := c.ParkURL(334); got != "http://x/parks/334/queue_times.json" {
		t.Errorf("ParkURL: got %q", got)
	}
}

func TestScrape_QueuedBeyondBurstStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(parkFeed))
	}))
	defer srv.Close()

	// 20 scrapes at 40/s with burst 2 take ~450ms to drain, well past the
	// 150ms per-fetch timeout.
	c := New(config.SourceConfig{
		BaseURL:   srv.URL,
		UserAgent: "Mozilla/5.0",
		Timeout:   150 * time.Millisecond,
		RateLimit: 40,
	}, 2)

	const n = 20
	results := make([]*ParkResult, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Scrape(context.Background(), config.Park{Name: "EPCOT", ID: 5})
		}()
	}
	wg.Wait()

	for i, res := range results {
		if !res.OK() {
			t.Errorf("scrape %d: got err %v, want success", i, res.Err)
			continue
		}
		if res.Duration >= 150*time.Millisecond {
			t.Errorf("scrape %d: duration %v includes limiter queueing", i, res.Duration)
		}
	}
}

func TestScrape_CancelledWhileQueued(t *testing.T) {
	c := New(config.SourceConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, RateLimit: 0.001}, 1)
	c.limiter.Allow() // spend the only token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Scrape(ctx, config.Park{Name: "EPCOT", ID: 5})
	if res.OK() {
		t.Fatal("res.Err should be set when ctx is cancelled before a token frees up")
	}
}
