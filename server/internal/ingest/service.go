package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/alerts"
	"github.com/queuewatch/queuewatch/server/internal/compute"
	"github.com/queuewatch/queuewatch/server/internal/config"
	"github.com/queuewatch/queuewatch/server/internal/metrics"
	"github.com/queuewatch/queuewatch/server/internal/scraper"
	"github.com/queuewatch/queuewatch/server/internal/store"
)

// catalog is the reloadable part of the configuration a cycle reads.
type catalog struct {
	parks   []config.Park
	excl    scraper.Exclusions
	advisor *compute.Advisor
}

// Service runs ingestion cycles. It is safe for concurrent use: overlapping
// Refresh calls each produce their own batch and append independently.
type Service struct {
	client  *scraper.Client
	store   store.Store
	metrics *metrics.Metrics
	alerts  *alerts.Engine
	pick    func(n int) int

	catalog atomic.Pointer[catalog]
	latest  atomic.Pointer[Board]
	uptime  *feedUptime

	clockMu sync.Mutex
	last    time.Time
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records cycle and fetch metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAlerts evaluates e's rules against every batch.
func WithAlerts(e *alerts.Engine) Option {
	return func(s *Service) { s.alerts = e }
}

// WithClock replaces the wall clock used to stamp samples.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPicker fixes the advisor's random choice.
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) { s.pick = pick }
}

// New builds a Service over an explicit scraper client and store.
func New(cfg *config.Config, client *scraper.Client, st store.Store, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  st,
		uptime: newFeedUptime(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetCatalog(cfg)
	return s
}

// SetCatalog swaps in the parks, exclusions and advice settings from cfg.
// Cycles already running finish with the catalog they started with.
func (s *Service) SetCatalog(cfg *config.Config) {
	parks := make([]config.Park, len(cfg.Parks))
	copy(parks, cfg.Parks)

	advisor := compute.NewAdvisor(cfg.Advice)
	if s.pick != nil {
		advisor = advisor.WithPicker(s.pick)
	}
	s.catalog.Store(&catalog{
		parks:   parks,
		excl:    scraper.NewExclusions(cfg.Exclusions),
		advisor: advisor,
	})
}

// Latest returns the board of the most recent completed cycle, or nil if no
// cycle has run yet.
func (s *Service) Latest() *Board {
	return s.latest.Load()
}

// parkOutcome is one park's contribution to a cycle.
type parkOutcome struct {
	status  ParkStatus
	samples []types.RideSample
}

// Refresh runs one full cycle and returns its board. It never fails: parks
// whose feed cannot be fetched contribute no samples, and store failures are
// logged while the in-memory batch is still returned.
//
// The cycle ignores ctx cancellation. Each fetch is bounded by the source
// timeout only, so a client leaving mid-render cannot turn healthy parks into
// failures on the board every other viewer shares.
func (s *Service) Refresh(ctx context.Context) *Board {
	ctx = context.WithoutCancel(ctx)
	cat := s.catalog.Load()
	cycle := uuid.NewString()
	start := time.Now()

	outcomes := make([]parkOutcome, len(cat.parks))
	var wg sync.WaitGroup
	for i, park := range cat.parks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = s.ingestPark(ctx, cycle, cat, park)
		}()
	}
	wg.Wait()

	board := &Board{
		CycleID:     cycle,
		GeneratedAt: s.now().UTC(),
		Parks:       make([]ParkStatus, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		board.Batch = append(board.Batch, o.samples...)
		board.Parks = append(board.Parks, o.status)
	}
	board.Top = compute.TopWaits(board.Batch, compute.TopN)
	board.Advice = cat.advisor.Advise(board.Batch)

	if s.alerts != nil {
		s.alerts.Evaluate(board.Batch)
	}
	open := board.OpenCount()
	s.metrics.CycleDone(open)
	s.latest.Store(board)

	slog.Info("ingest: cycle complete",
		"cycle", cycle,
		"samples", len(board.Batch),
		"open", open,
		"failed_parks", len(board.FailedParks()),
		"duration", time.Since(start),
	)
	return board
}

// ingestPark scrapes, transforms and appends one park.
func (s *Service) ingestPark(ctx context.Context, cycle string, cat *catalog, park config.Park) parkOutcome {
	res := s.client.Scrape(ctx, park)
	s.metrics.ObserveFetch(park.Name, res.OK(), res.Duration.Seconds())

	status := ParkStatus{
		Name:     park.Name,
		Hours:    park.Hours,
		OK:       res.OK(),
		Duration: res.Duration,
		Uptime:   s.uptime.record(park.Name, res.OK()),
	}
	if !res.OK() {
		status.Err = res.Err.Error()
		slog.Warn("ingest: park fetch failed", "cycle", cycle, "park", park.Name, "err", res.Err)
		return parkOutcome{status: status}
	}

	samples, excluded := scraper.Transform(park.Name, res.Rides, cat.excl, s.stamp())
	status.Rides = len(samples)
	status.Excluded = excluded

	if err := s.store.Append(ctx, samples...); err != nil {
		slog.Error("ingest: store append failed", "cycle", cycle, "park", park.Name, "count", len(samples), "err", err)
		s.metrics.StoreError(metrics.OpAppend)
		s.metrics.AddIngested(0, excluded)
	} else {
		s.metrics.AddIngested(len(samples), excluded)
	}
	slog.Debug("ingest: park ingested", "cycle", cycle, "park", park.Name, "count", len(samples), "excluded", excluded)
	return parkOutcome{status: status, samples: samples}
}

// stamp returns the observation time for a park's samples. It never goes
// backwards within a process, even if the wall clock does.
func (s *Service) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC()
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}

// Run refreshes immediately and then every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	slog.Info("ingest: background polling started", "interval", interval)
	s.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("ingest: background polling stopped")
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
