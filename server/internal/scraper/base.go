package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/queuewatch/queuewatch/server/internal/config"
)

const (
	defaultScrapeTimeout = 10 * time.Second

	// maxFeedBytes bounds how much of a feed body is read.
	maxFeedBytes = 8 << 20
)

// ParkResult is the outcome of one scrape of one park. Exactly one of Rides
// and Err is meaningful: a failed scrape carries Err and no rides.
type ParkResult struct {
	Park      config.Park
	ScrapedAt time.Time
	Duration  time.Duration

	// Rides are the decoded ride records in feed order: lands first, then the
	// top-level rides list.
	Rides []RawRide

	// Err is non-nil if the fetch or decode failed (connectivity, timeout,
	// status, malformed body). The park contributes nothing to the cycle.
	Err error
}

// OK reports whether the scrape succeeded.
func (r *ParkResult) OK() bool { return r.Err == nil }

// Client fetches park feeds from the queue-times API.
// It is safe for concurrent use; one Client is shared by all parks.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// New builds a Client for the given source settings. burst is the number of
// requests allowed back to back, normally the park count, so one parallel
// cycle is not throttled.
func New(src config.SourceConfig, burst int) *Client {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = defaultScrapeTimeout
	}
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if src.RateLimit > 0 {
		limit = rate.Limit(src.RateLimit)
	}
	return &Client{
		baseURL: strings.TrimRight(src.BaseURL, "/"),
		timeout: timeout,
		client: &http.Client{
			Transport: &uaRoundTripper{base: http.DefaultTransport, agent: src.UserAgent},
			Timeout:   timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// uaRoundTripper sets the User-Agent on every outgoing request. The public
// feed rejects the default Go user agent.
type uaRoundTripper struct {
	base  http.RoundTripper
	agent string
}

func (t *uaRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// ParkURL returns the feed URL for a queue-times park id.
func (c *Client) ParkURL(id int) string {
	return fmt.Sprintf("%s/parks/%d/queue_times.json", c.baseURL, id)
}

// Scrape fetches and decodes one park's feed within the client timeout.
// It never returns nil; failures are reported through ParkResult.Err.
//
// The rate limiter is waited on before the timeout starts, so time spent
// queued behind other scrapes never eats into the fetch budget. Only a
// cancelled ctx ends the wait early.
func (c *Client) Scrape(ctx context.Context, park config.Park) *ParkResult {
	res := &ParkResult{Park: park}
	if err := c.limiter.Wait(ctx); err != nil {
		res.ScrapedAt = c.now().UTC()
		res.Err = fmt.Errorf("scrape %q: rate limit: %w", park.Name, err)
		return res
	}

	res.ScrapedAt = c.now().UTC()
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.fetch(ctx, c.ParkURL(park.ID))
	if err != nil {
		res.Err = fmt.Errorf("scrape %q: %w", park.Name, err)
		return res
	}

	rides, err := ParseFeed(body)
	if err != nil {
		res.Err = fmt.Errorf("scrape %q: %w", park.Name, err)
		return res
	}
	res.Rides = rides
	return res
}

// fetch performs an HTTP GET to url and returns the response body.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
