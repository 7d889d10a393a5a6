package ingest

import (
	"time"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// Board is the result of one ingestion cycle. It is never modified after
// Refresh returns it.
type Board struct {
	CycleID     string    `json:"cycle_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Batch holds every sample of the cycle in configured park order, each
	// park's rides in feed order.
	Batch []types.RideSample `json:"batch"`

	// Top is the longest open waits, longest first.
	Top []types.RideSample `json:"top"`

	Advice []string     `json:"advice"`
	Parks  []ParkStatus `json:"parks"`
}

// ParkStatus reports how one park fared in the cycle.
type ParkStatus struct {
	Name     string        `json:"name"`
	Hours    string        `json:"hours,omitempty"`
	OK       bool          `json:"ok"`
	Err      string        `json:"error,omitempty"`
	Rides    int           `json:"rides"`
	Excluded int           `json:"excluded"`
	Duration time.Duration `json:"duration_ns"`

	// Uptime is the share of this park's recent fetches that succeeded.
	Uptime float64 `json:"uptime_pct"`
}

// OpenCount returns the number of open rides in the batch.
func (b *Board) OpenCount() int {
	n := 0
	for _, s := range b.Batch {
		if s.Open() {
			n++
		}
	}
	return n
}

// FailedParks returns the names of parks that contributed nothing this cycle.
func (b *Board) FailedParks() []string {
	var out []string
	for _, p := range b.Parks {
		if !p.OK {
			out = append(out, p.Name)
		}
	}
	return out
}
