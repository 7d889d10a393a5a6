package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/alerts"
	"github.com/queuewatch/queuewatch/server/internal/api"
	"github.com/queuewatch/queuewatch/server/internal/config"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
	"github.com/queuewatch/queuewatch/server/internal/store"
)

// --- test helpers -----------------------------------------------------------

// stubCycler returns a fixed board and counts refreshes.
type stubCycler struct {
	board     *ingest.Board
	refreshes int
	latest    *ingest.Board
}

func (s *stubCycler) Refresh(context.Context) *ingest.Board {
	s.refreshes++
	s.latest = s.board
	return s.board
}

func (s *stubCycler) Latest() *ingest.Board { return s.latest }

// brokenStore fails every read.
type brokenStore struct{ store.Store }

var errBroken = errors.New("database is down")

func (brokenStore) RideHistory(context.Context, string, time.Duration) ([]types.WaitPoint, error) {
	return nil, errBroken
}

func (brokenStore) Recent(context.Context, time.Duration, int) ([]types.RideSample, error) {
	return nil, errBroken
}

func (brokenStore) Count(context.Context) (int, error) { return 0, errBroken }

type fixedAlerts []alerts.Alert

func (f fixedAlerts) Active() []alerts.Alert { return f }

func sample(park, ride string, status types.Status, wait int) types.RideSample {
	return types.RideSample{RideName: ride, ParkName: park, Status: status, WaitMinutes: wait,
		ObservedAt: time.Now().UTC()}
}

func testBoard() *ingest.Board {
	batch := []types.RideSample{
		sample("EPCOT", "Test Track", types.StatusOpen, 60),
		sample("EPCOT", "Soarin'", types.StatusDelayed, 0),
		sample("Magic Kingdom", "Mine Train", types.StatusOpen, 35),
	}
	return &ingest.Board{
		CycleID:     "cycle-1",
		GeneratedAt: time.Now().UTC(),
		Batch:       batch,
		Top:         []types.RideSample{batch[0], batch[2]},
		Advice:      []string{"🚀 VALUE ALERT: Mine Train wait has dropped to 35 mins!"},
		Parks: []ingest.ParkStatus{
			{Name: "EPCOT", Hours: "9:00 AM - 9:30 PM", OK: true, Rides: 2},
			{Name: "Magic Kingdom", Hours: "8:00 AM - 11:00 PM", OK: false, Err: "unexpected status 503"},
		},
	}
}

func historyConfig() config.HistoryConfig {
	return config.HistoryConfig{
		RideWindow: config.DefaultRideWindow,
		LogWindow:  config.DefaultLogWindow,
		LogLimit:   config.DefaultLogLimit,
	}
}

func newHandler(t *testing.T, st store.Store, mods ...func(*api.Options)) (http.Handler, *stubCycler) {
	t.Helper()
	cy := &stubCycler{board: testBoard()}
	opts := api.Options{
		Ingest:  cy,
		Store:   st,
		History: historyConfig(),
		Shuffle: func(int, func(i, j int)) {},
	}
	for _, m := range mods {
		m(&opts)
	}
	return api.New(opts), cy
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func document(t *testing.T, rr *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	if err != nil {
		t.Fatalf("parse HTML: %v", err)
	}
	return doc
}

// --- GET / ------------------------------------------------------------------

func TestDashboard_RendersBoard(t *testing.T) {
	h, cy := newHandler(t, store.NewMemory())
	rr := get(t, h, "/")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if cy.refreshes != 1 {
		t.Errorf("refreshes: got %d, want 1", cy.refreshes)
	}
	doc := document(t, rr)

	var top []string
	doc.Find(".top-wait").Each(func(_ int, s *goquery.Selection) {
		top = append(top, s.Text())
	})
	if len(top) != 2 || !strings.HasPrefix(top[0], "TEST TRACK: ") || !strings.Contains(top[0], "60 MIN") {
		t.Errorf("top waits: got %q", top)
	}
	if got := doc.Find(".tip-text").Text(); !strings.Contains(got, "Mine Train") {
		t.Errorf("advice: got %q", got)
	}
	if n := doc.Find(".ride-spotlight").Length(); n != 3 {
		t.Errorf("spotlight cards: got %d, want 3", n)
	}
	if n := doc.Find(".ride-spotlight .delayed").Length(); n != 1 {
		t.Errorf("delayed cards: got %d, want 1", n)
	}
	if got := doc.Find(`.park[data-park="EPCOT"] .hours`).Text(); got != "9:00 AM - 9:30 PM" {
		t.Errorf("EPCOT hours: got %q", got)
	}
	if got := doc.Find(".park.failed .hours").Text(); got != "NO DATA" {
		t.Errorf("failed park: got %q, want NO DATA", got)
	}
	if got, _ := doc.Find("body").Attr("data-cycle"); got != "cycle-1" {
		t.Errorf("cycle id: got %q", got)
	}
}

func TestDashboard_ShuffleIsPresentationOnly(t *testing.T) {
	var called bool
	reverse := func(n int, swap func(i, j int)) {
		called = true
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	h, cy := newHandler(t, store.NewMemory(), func(o *api.Options) { o.Shuffle = reverse })
	doc := document(t, get(t, h, "/"))

	if !called {
		t.Fatal("shuffle was not applied")
	}
	first, _ := doc.Find(".ride-spotlight").First().Attr("data-ride")
	if first != "Mine Train" {
		t.Errorf("first card: got %q, want Mine Train", first)
	}
	if cy.board.Batch[0].RideName != "Test Track" {
		t.Error("shuffle modified the board's batch")
	}
}

// --- GET /history -----------------------------------------------------------

func TestHistoryLog_NewestFirst(t *testing.T) {
	st := store.NewMemory()
	now := time.Now().UTC()
	ctx := context.Background()
	old := sample("EPCOT", "Test Track", types.StatusOpen, 50)
	old.ObservedAt = now.Add(-2 * time.Hour)
	stale := sample("EPCOT", "Ancient", types.StatusOpen, 10)
	stale.ObservedAt = now.Add(-13 * time.Hour)
	recent := sample("EPCOT", "Soarin'", types.StatusDelayed, 0)
	recent.ObservedAt = now.Add(-time.Minute)
	if err := st.Append(ctx, stale, old, recent); err != nil {
		t.Fatalf("append: %v", err)
	}

	h, _ := newHandler(t, st)
	rr := get(t, h, "/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	doc := document(t, rr)
	rows := doc.Find("tr.sample")
	if rows.Length() != 2 {
		t.Fatalf("rows: got %d, want 2", rows.Length())
	}
	if got := rows.First().Find(".ride").Text(); got != "Soarin'" {
		t.Errorf("first row: got %q, want Soarin'", got)
	}
	if !rows.First().Find(".status").HasClass("delayed") {
		t.Error("delayed row should have delayed class")
	}
	if got := rows.Last().Find(".wait").Text(); got != "50m" {
		t.Errorf("wait cell: got %q, want 50m", got)
	}
}

func TestHistoryLog_StoreFailureRendersEmpty(t *testing.T) {
	h, _ := newHandler(t, brokenStore{})
	rr := get(t, h, "/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if n := document(t, rr).Find("tr.sample").Length(); n != 0 {
		t.Errorf("rows: got %d, want 0", n)
	}
}

// --- GET /api/history/{ride} ------------------------------------------------

func TestRideHistory_AscendingHHMM(t *testing.T) {
	st := store.NewMemory()
	now := time.Now().UTC()
	var samples []types.RideSample
	for _, age := range []time.Duration{25 * time.Hour, time.Hour, 10 * time.Minute} {
		s := sample("Magic Kingdom", "Mine Train", types.StatusOpen, int(age/time.Minute)%90)
		s.ObservedAt = now.Add(-age)
		samples = append(samples, s)
	}
	if err := st.Append(context.Background(), samples...); err != nil {
		t.Fatalf("append: %v", err)
	}

	h, _ := newHandler(t, st)
	rr := get(t, h, "/api/history/Mine%20Train")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var got []api.HistoryPoint
	decode(t, rr, &got)
	if len(got) != 2 {
		t.Fatalf("points: got %d, want 2", len(got))
	}
	if want := now.Add(-time.Hour).Format("15:04"); got[0].Time != want {
		t.Errorf("first time: got %s, want %s", got[0].Time, want)
	}
	if got[1].Wait != 10 {
		t.Errorf("last wait: got %d, want 10", got[1].Wait)
	}
}

func TestRideHistory_ConfiguredTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	st := store.NewMemory()
	s := sample("EPCOT", "Test Track", types.StatusOpen, 30)
	s.ObservedAt = time.Now().UTC().Add(-time.Minute)
	if err := st.Append(context.Background(), s); err != nil {
		t.Fatalf("append: %v", err)
	}

	h, _ := newHandler(t, st, func(o *api.Options) { o.History.Timezone = "Asia/Tokyo" })
	var got []api.HistoryPoint
	decode(t, get(t, h, "/api/history/Test%20Track"), &got)
	if want := s.ObservedAt.In(loc).Format("15:04"); len(got) != 1 || got[0].Time != want {
		t.Errorf("got %+v, want one point at %s", got, want)
	}
}

func TestRideHistory_NameWithSlash(t *testing.T) {
	st := store.NewMemory()
	s := sample("Magic Kingdom", "Dumbo/the Flying Elephant", types.StatusOpen, 15)
	s.ObservedAt = time.Now().UTC().Add(-time.Minute)
	if err := st.Append(context.Background(), s); err != nil {
		t.Fatalf("append: %v", err)
	}

	h, _ := newHandler(t, st)
	var got []api.HistoryPoint
	decode(t, get(t, h, "/api/history/Dumbo/the%20Flying%20Elephant"), &got)
	if len(got) != 1 || got[0].Wait != 15 {
		t.Errorf("got %+v, want one point with wait 15", got)
	}
}

func TestRideHistory_UnknownAndBrokenAreEmptyArrays(t *testing.T) {
	for name, st := range map[string]store.Store{
		"unknown ride": store.NewMemory(),
		"broken store": brokenStore{},
	} {
		t.Run(name, func(t *testing.T) {
			h, _ := newHandler(t, st)
			rr := get(t, h, "/api/history/Nope")
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rr.Code)
			}
			if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
				t.Errorf("body: got %s, want []", body)
			}
		})
	}
}

// --- /api/v1 ------------------------------------------------------------------

func TestBoard_BeforeAndAfterCycle(t *testing.T) {
	h, _ := newHandler(t, store.NewMemory())

	if rr := get(t, h, "/api/v1/board"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("before cycle: got %d, want 503", rr.Code)
	}
	get(t, h, "/")

	rr := get(t, h, "/api/v1/board")
	if rr.Code != http.StatusOK {
		t.Fatalf("after cycle: got %d, want 200", rr.Code)
	}
	var b ingest.Board
	decode(t, rr, &b)
	if b.CycleID != "cycle-1" || len(b.Batch) != 3 {
		t.Errorf("board: got cycle %q with %d samples", b.CycleID, len(b.Batch))
	}
}

func TestAlerts(t *testing.T) {
	h, _ := newHandler(t, store.NewMemory())
	if body := strings.TrimSpace(get(t, h, "/api/v1/alerts").Body.String()); body != "[]" {
		t.Errorf("no engine: got %s, want []", body)
	}

	h, _ = newHandler(t, store.NewMemory(), func(o *api.Options) {
		o.Alerts = fixedAlerts{{RuleName: "short-mine-train", State: alerts.StateFiring}}
	})
	var got []alerts.Alert
	decode(t, get(t, h, "/api/v1/alerts"), &got)
	if len(got) != 1 || got[0].RuleName != "short-mine-train" {
		t.Errorf("alerts: got %+v", got)
	}
}

func TestGuard_AppliesToOperationalRoutesOnly(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	metricsH := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	h, _ := newHandler(t, store.NewMemory(), func(o *api.Options) {
		o.Guard = deny
		o.MetricsHandler = metricsH
	})

	for path, want := range map[string]int{
		"/api/v1/board":  http.StatusUnauthorized,
		"/api/v1/alerts": http.StatusUnauthorized,
		"/metrics":       http.StatusUnauthorized,
		"/":              http.StatusOK,
		"/history":       http.StatusOK,
		"/api/history/X": http.StatusOK,
		"/healthz":       http.StatusOK,
	} {
		if got := get(t, h, path).Code; got != want {
			t.Errorf("%s: got %d, want %d", path, got, want)
		}
	}
}

// --- /healthz and routing -----------------------------------------------------

func TestHealth(t *testing.T) {
	st := store.NewMemory()
	if err := st.Append(context.Background(), sample("EPCOT", "Test Track", types.StatusOpen, 5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	h, _ := newHandler(t, st)
	var resp api.HealthResponse
	decode(t, get(t, h, "/healthz"), &resp)
	if resp.Status != "ok" || resp.Samples != 1 {
		t.Errorf("health: got %+v", resp)
	}

	h, _ = newHandler(t, brokenStore{})
	rr := get(t, h, "/healthz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("broken store: got %d, want 503", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	passthrough := func(h http.Handler) http.Handler { return h }
	h, _ := newHandler(t, store.NewMemory(), func(o *api.Options) { o.Guard = passthrough })
	paths := []string{"/", "/history", "/api/history/X", "/healthz", "/api/v1/board", "/api/v1/alerts"}
	for _, path := range paths {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
		var resp map[string]string
		decode(t, rr, &resp)
		if resp["error"] == "" {
			t.Errorf("POST %s: missing error field", path)
		}
	}
}

func TestNotFound(t *testing.T) {
	h, _ := newHandler(t, store.NewMemory())
	if rr := get(t, h, "/api/v1/nope"); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route: got %d, want 404", rr.Code)
	}
}
