package compute

import (
	"fmt"
	"math/rand/v2"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/config"
)

// MaxTips is the most hints Advise returns.
const MaxTips = 2

// Fallback messages.
const (
	QuietParksTip = "Enjoy the resort atmosphere! Parks are currently quiet."
	WelcomeTip    = "Welcome back! Keep an eye on the spotlight for trending wait times."
)

// Advisor turns a batch into short textual hints.
type Advisor struct {
	newestPark     string
	epicMaxWait    int
	marquee        map[string]struct{}
	marqueeMaxWait int

	// pick returns a uniform index in [0, n). Injectable for tests.
	pick func(n int) int
}

// NewAdvisor builds an Advisor from the advice settings.
func NewAdvisor(cfg config.AdviceConfig) *Advisor {
	m := make(map[string]struct{}, len(cfg.Marquee))
	for _, name := range cfg.Marquee {
		m[name] = struct{}{}
	}
	return &Advisor{
		newestPark:     cfg.NewestPark,
		epicMaxWait:    cfg.EpicMaxWait,
		marquee:        m,
		marqueeMaxWait: cfg.MarqueeMaxWait,
		pick:           rand.IntN,
	}
}

// WithPicker returns a copy of a that uses pick for the epic-tip choice.
func (a *Advisor) WithPicker(pick func(n int) int) *Advisor {
	cp := *a
	cp.pick = pick
	return &cp
}

// Advise returns between zero and MaxTips hints for batch.
func (a *Advisor) Advise(batch []types.RideSample) []string {
	var open []types.RideSample
	for _, s := range batch {
		if s.Open() {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return []string{QuietParksTip}
	}

	tips := make([]string, 0, MaxTips)

	var gems []types.RideSample
	for _, s := range open {
		if s.ParkName == a.newestPark && s.WaitMinutes <= a.epicMaxWait {
			gems = append(gems, s)
		}
	}
	if len(gems) > 0 {
		gem := gems[a.pick(len(gems))]
		tips = append(tips, epicTip(gem))
	}

	for _, s := range open {
		if len(tips) == MaxTips {
			return tips
		}
		if _, ok := a.marquee[s.RideName]; ok && s.WaitMinutes <= a.marqueeMaxWait {
			tips = append(tips, valueAlert(s))
		}
	}

	if len(tips) == 0 {
		tips = append(tips, WelcomeTip)
	}
	return tips
}

func epicTip(s types.RideSample) string {
	return fmt.Sprintf("✨ EPIC TIP: %s is only %d mins. Rare for this new park!", s.RideName, s.WaitMinutes)
}

func valueAlert(s types.RideSample) string {
	return fmt.Sprintf("🚀 VALUE ALERT: %s wait has dropped to %d mins!", s.RideName, s.WaitMinutes)
}
