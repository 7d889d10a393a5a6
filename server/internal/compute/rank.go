package compute

import (
	"slices"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// TopN is the size of the dashboard's top-waits bar.
const TopN = 5

// TopWaits returns up to n open samples with the longest waits. Ties keep
// their batch order.
func TopWaits(batch []types.RideSample, n int) []types.RideSample {
	open := make([]types.RideSample, 0, len(batch))
	for _, s := range batch {
		if s.Open() {
			open = append(open, s)
		}
	}
	slices.SortStableFunc(open, func(a, b types.RideSample) int {
		return b.WaitMinutes - a.WaitMinutes
	})
	if n >= 0 && len(open) > n {
		open = open[:n]
	}
	return open
}
