package scraper

import (
	"time"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// MinOpenWait replaces a reported wait of zero or less on an open ride; a
// zero from the feed on an operating ride is almost always inaccurate.
const MinOpenWait = 5

// Exclusions is a set of ride names that never produce samples.
type Exclusions map[string]struct{}

// NewExclusions builds an exclusion set from a list of exact ride names.
func NewExclusions(names []string) Exclusions {
	e := make(Exclusions, len(names))
	for _, n := range names {
		e[n] = struct{}{}
	}
	return e
}

// Has reports whether name is excluded. Matching is exact.
func (e Exclusions) Has(name string) bool {
	_, ok := e[name]
	return ok
}

// Transform normalizes a park's raw rides into samples stamped with at.
// It returns the samples in input order and the number of rides skipped by
// the exclusion set.
func Transform(park string, rides []RawRide, excl Exclusions, at time.Time) ([]types.RideSample, int) {
	out := make([]types.RideSample, 0, len(rides))
	excluded := 0
	for _, r := range rides {
		if excl.Has(r.Name) {
			excluded++
			continue
		}
		status, wait := normalize(r)
		out = append(out, types.RideSample{
			RideName:    r.Name,
			ParkName:    park,
			WaitMinutes: wait,
			Status:      status,
			ObservedAt:  at,
		})
	}
	return out, excluded
}

// normalize applies the wait-time policy: closed rides show 0 whatever the
// feed says, open rides show the feed value or MinOpenWait when it is ≤ 0.
func normalize(r RawRide) (types.Status, int) {
	if !r.IsOpen {
		return types.StatusDelayed, 0
	}
	if r.Wait <= 0 {
		return types.StatusOpen, MinOpenWait
	}
	return types.StatusOpen, r.Wait
}
