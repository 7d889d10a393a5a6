package types

import "time"

// Status is the operating state of a ride at observation time.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusDelayed Status = "DELAYED"
)

// UnknownRide is the name given to source records that carry no usable name.
const UnknownRide = "unknown"

// RideSample is one observation of one ride at one instant.
// A sample is never modified after it has been created.
type RideSample struct {
	RideName    string    `json:"ride_name"`
	ParkName    string    `json:"park_name"`
	WaitMinutes int       `json:"wait_minutes"`
	Status      Status    `json:"status"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Open reports whether the ride was operating when observed.
func (s RideSample) Open() bool { return s.Status == StatusOpen }

// WaitPoint is one (time, wait) pair of a ride's history.
type WaitPoint struct {
	At   time.Time
	Wait int
}
