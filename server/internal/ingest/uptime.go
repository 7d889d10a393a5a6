package ingest

import "sync"

// uptimeWindow is the number of recent fetch outcomes kept per park.
const uptimeWindow = 20

// feedUptime tracks recent fetch outcomes per park across cycles.
type feedUptime struct {
	mu      sync.Mutex
	history map[string][]bool // newest last
}

func newFeedUptime() *feedUptime {
	return &feedUptime{history: make(map[string][]bool)}
}

// record adds one outcome for park and returns the park's success percentage
// over the window, including this outcome.
func (u *feedUptime) record(park string, ok bool) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	h := u.history[park]
	if len(h) >= uptimeWindow {
		h = h[1:]
	}
	h = append(h, ok)
	u.history[park] = h

	n := 0
	for _, s := range h {
		if s {
			n++
		}
	}
	return float64(n) / float64(len(h)) * 100
}
