// Package console renders boards and metric summaries for the terminal.
package console

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/ingest"
	"github.com/queuewatch/queuewatch/server/internal/metrics"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Padding(1, 0, 0, 0)
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	waitStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	adviceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("177")).Italic(true)
)

const (
	rideCol = 42
	parkCol = 28
)

// RenderBoard writes b as a ranked summary followed by every park's rides.
func RenderBoard(w io.Writer, b *ingest.Board) {
	upper := cases.Upper(language.English)

	fmt.Fprintln(w, titleStyle.Render("TOP WAITS"))
	if len(b.Top) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  no open rides"))
	}
	for i, s := range b.Top {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1,
			lipgloss.NewStyle().Width(rideCol).Render(upper.String(s.RideName)),
			waitStyle.Render(fmt.Sprintf("%d MIN", s.WaitMinutes)))
	}

	fmt.Fprintln(w, titleStyle.Render("GUIDE"))
	for _, tip := range b.Advice {
		fmt.Fprintln(w, "  "+adviceStyle.Render(tip))
	}

	byPark := make(map[string][]types.RideSample, len(b.Parks))
	for _, s := range b.Batch {
		byPark[s.ParkName] = append(byPark[s.ParkName], s)
	}
	for _, p := range b.Parks {
		header := headStyle.Render(upper.String(p.Name))
		if p.Hours != "" {
			header += " " + mutedStyle.Render(p.Hours)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, header)
		if !p.OK {
			fmt.Fprintln(w, "  "+warnStyle.Render("NO DATA: "+p.Err))
			continue
		}
		for _, s := range byPark[p.Name] {
			fmt.Fprintf(w, "  %s %s\n", lipgloss.NewStyle().Width(rideCol).Render(s.RideName), status(s))
		}
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("\ncycle %s at %s, %d samples",
		b.CycleID, b.GeneratedAt.Format("15:04:05"), len(b.Batch))))
}

func status(s types.RideSample) string {
	if s.Open() {
		return okStyle.Render(fmt.Sprintf("%3d min", s.WaitMinutes))
	}
	return warnStyle.Render(string(types.StatusDelayed))
}

// RenderSummary writes a metrics summary scraped from a running server.
func RenderSummary(w io.Writer, source string, s *metrics.Summary) {
	fmt.Fprintln(w, titleStyle.Render("QUEUEWATCH "+source))
	row := func(label string, v float64) {
		fmt.Fprintf(w, "  %s %s\n", lipgloss.NewStyle().Width(parkCol).Render(label), waitStyle.Render(fmt.Sprintf("%.0f", v)))
	}
	row("cycles", s.Cycles)
	row("open rides", s.OpenRides)
	row("samples ingested", s.Ingested)
	row("samples excluded", s.Excluded)
	row("fetches ok", s.FetchOK)
	row("fetches failed", s.FetchFailed)
	row("store errors", s.StoreErrors)

	if len(s.FailedByPark) == 0 {
		return
	}
	parks := make([]string, 0, len(s.FailedByPark))
	for p := range s.FailedByPark {
		parks = append(parks, p)
	}
	sort.Strings(parks)
	fmt.Fprintln(w, headStyle.Render("  failed fetches by park"))
	for _, p := range parks {
		fmt.Fprintf(w, "    %s %s\n", lipgloss.NewStyle().Width(parkCol).Render(p),
			warnStyle.Render(fmt.Sprintf("%.0f", s.FailedByPark[p])))
	}
}
