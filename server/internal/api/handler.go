package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/queuewatch/queuewatch/server/internal/alerts"
	"github.com/queuewatch/queuewatch/server/internal/config"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
	"github.com/queuewatch/queuewatch/server/internal/metrics"
	"github.com/queuewatch/queuewatch/server/internal/store"
)

// Cycler runs ingestion cycles for the dashboard.
type Cycler interface {
	Refresh(ctx context.Context) *ingest.Board
	Latest() *ingest.Board
}

// AlertLister exposes the alert engine's current state.
type AlertLister interface {
	Active() []alerts.Alert
}

// Options wires the handler to its collaborators. Ingest and Store are
// required; the rest are optional.
type Options struct {
	Ingest  Cycler
	Store   store.Store
	History config.HistoryConfig

	Alerts  AlertLister
	Metrics *metrics.Metrics

	// MetricsHandler is mounted at /metrics and Stream at /ws/stream.
	MetricsHandler http.Handler
	Stream         http.Handler

	// Guard wraps the operational endpoints (/metrics, /api/v1/*).
	Guard func(http.Handler) http.Handler

	// Shuffle reorders the dashboard's display copy of the batch.
	Shuffle func(n int, swap func(i, j int))
}

// Handler serves the dashboard, history views and JSON endpoints.
type Handler struct {
	opts   Options
	loc    *time.Location
	router *mux.Router
}

// New creates a Handler and registers all routes.
func New(opts Options) http.Handler {
	if opts.Guard == nil {
		opts.Guard = func(h http.Handler) http.Handler { return h }
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	h := &Handler{opts: opts, loc: opts.History.Location(), router: mux.NewRouter()}
	r := h.router

	// Ride names are matched verbatim, including "//" runs.
	r.SkipClean(true)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc("/", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/history", h.historyLog).Methods(http.MethodGet)
	r.HandleFunc("/api/history/{ride:.+}", h.rideHistory).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	// Guarded routes live on the root router so a method mismatch still
	// reaches MethodNotAllowedHandler.
	r.Handle("/api/v1/board", opts.Guard(http.HandlerFunc(h.board))).Methods(http.MethodGet)
	r.Handle("/api/v1/alerts", opts.Guard(http.HandlerFunc(h.alerts))).Methods(http.MethodGet)

	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.Guard(opts.MetricsHandler)).Methods(http.MethodGet)
	}
	if opts.Stream != nil {
		r.Handle("/ws/stream", opts.Stream).Methods(http.MethodGet)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- JSON route handlers ----------------------------------------------------

// rideHistory returns GET /api/history/{ride}: the ride's waits over the
// configured ride window, oldest first.
func (h *Handler) rideHistory(w http.ResponseWriter, r *http.Request) {
	ride := mux.Vars(r)["ride"]

	points, err := h.opts.Store.RideHistory(r.Context(), ride, h.opts.History.RideWindow)
	if err != nil {
		h.readFailed("ride history", err, "ride", ride)
		points = nil
	}

	out := make([]HistoryPoint, 0, len(points))
	for _, p := range points {
		out = append(out, HistoryPoint{Time: p.At.In(h.loc).Format("15:04"), Wait: p.Wait})
	}
	jsonResp(w, http.StatusOK, out)
}

// board returns GET /api/v1/board: the latest board without running a cycle.
func (h *Handler) board(w http.ResponseWriter, _ *http.Request) {
	b := h.opts.Ingest.Latest()
	if b == nil {
		jsonErr(w, http.StatusServiceUnavailable, "no cycle has completed yet")
		return
	}
	jsonResp(w, http.StatusOK, b)
}

// alerts returns GET /api/v1/alerts.
func (h *Handler) alerts(w http.ResponseWriter, _ *http.Request) {
	if h.opts.Alerts == nil {
		jsonResp(w, http.StatusOK, []alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.opts.Alerts.Active())
}

// health returns GET /healthz. A store that cannot be counted reports
// "degraded" with 503.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	n, err := h.opts.Store.Count(r.Context())
	if err != nil {
		h.readFailed("count", err)
		jsonResp(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{Status: "ok", Samples: n})
}

// --- helpers ----------------------------------------------------------------

// readFailed logs and counts a store read failure.
func (h *Handler) readFailed(what string, err error, attrs ...any) {
	slog.Error("api: store read failed, serving empty result",
		append([]any{"query", what, "err", err}, attrs...)...)
	h.opts.Metrics.StoreError(metrics.OpRead)
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	jsonErr(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
}
