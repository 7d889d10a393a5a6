package alerts

import (
	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/config"
)

// matches reports whether s is the ride rule watches. Ride names match
// exactly; an empty rule Park matches every park.
func matches(rule config.AlertRule, s types.RideSample) bool {
	if s.RideName != rule.Ride {
		return false
	}
	return rule.Park == "" || rule.Park == s.ParkName
}

// fires reports whether s satisfies rule: the ride is open and its wait is at
// or below the threshold. A DELAYED ride never fires, whatever its wait.
func fires(rule config.AlertRule, s types.RideSample) bool {
	return s.Open() && s.WaitMinutes <= rule.MaxWait
}

// alertKey identifies one rule firing for one park's copy of a ride.
func alertKey(rule config.AlertRule, park string) string {
	return rule.Name + ":" + park
}
