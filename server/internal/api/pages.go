package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
)

//go:embed templates/*.html
var templateFS embed.FS

// Casers are not safe for concurrent use, so each call builds its own.
var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"upper": func(s string) string { return cases.Upper(language.English).String(s) },
	"lower": func(s string) string { return cases.Lower(language.English).String(s) },
}).ParseFS(templateFS, "templates/*.html"))

// dashboardView is the data the dashboard template renders.
type dashboardView struct {
	CycleID   string
	Generated string
	Top       []types.RideSample
	Advice    []string
	Parks     []ingest.ParkStatus

	// Rides is the batch in display order; ranking and advice were computed
	// on the unshuffled batch.
	Rides []types.RideSample
}

// historyRow is one line of the /history table.
type historyRow struct {
	Time   string
	Park   string
	Ride   string
	Wait   int
	Status types.Status
	Open   bool
}

// dashboard serves GET /: run a cycle, then render it.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	b := h.opts.Ingest.Refresh(r.Context())

	display := slices.Clone(b.Batch)
	h.opts.Shuffle(len(display), func(i, j int) {
		display[i], display[j] = display[j], display[i]
	})

	h.render(w, "dashboard.html", dashboardView{
		CycleID:   b.CycleID,
		Generated: b.GeneratedAt.In(h.loc).Format("15:04"),
		Top:       b.Top,
		Advice:    b.Advice,
		Parks:     b.Parks,
		Rides:     display,
	})
}

// historyLog serves GET /history from the recent-samples window.
func (h *Handler) historyLog(w http.ResponseWriter, r *http.Request) {
	samples, err := h.opts.Store.Recent(r.Context(), h.opts.History.LogWindow, h.opts.History.LogLimit)
	if err != nil {
		h.readFailed("recent", err)
		samples = nil
	}

	rows := make([]historyRow, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, historyRow{
			Time:   s.ObservedAt.In(h.loc).Format("15:04"),
			Park:   s.ParkName,
			Ride:   s.RideName,
			Wait:   s.WaitMinutes,
			Status: s.Status,
			Open:   s.Open(),
		})
	}
	h.render(w, "history.html", struct {
		Rows   []historyRow
		Window time.Duration
	}{rows, h.opts.History.LogWindow})
}

// render executes a page into a buffer first so a template error yields a
// clean 500 instead of a truncated page.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("api: render failed", "template", name, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}
