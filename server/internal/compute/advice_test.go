package compute

import (
	"strings"
	"testing"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/config"
)

func testAdvisor() *Advisor {
	return NewAdvisor(config.AdviceConfig{
		NewestPark:     "Epic Universe",
		EpicMaxWait:    45,
		Marquee:        []string{"Mine Train", "Slinky Dog", "Rise of the Resistance"},
		MarqueeMaxWait: 50,
	})
}

func at(park, name string, status types.Status, wait int) types.RideSample {
	return types.RideSample{RideName: name, ParkName: park, Status: status, WaitMinutes: wait}
}

func TestAdvise_NoOpenRides(t *testing.T) {
	batch := []types.RideSample{
		at("Epic Universe", "Stardust Racers", types.StatusDelayed, 0),
		at("Magic Kingdom", "Mine Train", types.StatusDelayed, 0),
	}
	got := testAdvisor().Advise(batch)
	if len(got) != 1 || got[0] != QuietParksTip {
		t.Errorf("Advise: got %q, want only the quiet-parks tip", got)
	}

	if got := testAdvisor().Advise(nil); len(got) != 1 || got[0] != QuietParksTip {
		t.Errorf("Advise(nil): got %q", got)
	}
}

func TestAdvise_EpicTip(t *testing.T) {
	batch := []types.RideSample{
		at("Epic Universe", "Stardust Racers", types.StatusOpen, 20),
		at("Magic Kingdom", "Space Mountain", types.StatusOpen, 60),
	}
	got := testAdvisor().Advise(batch)

	epic := 0
	for _, tip := range got {
		if strings.Contains(tip, "EPIC TIP") {
			epic++
			if !strings.Contains(tip, "Stardust Racers") || !strings.Contains(tip, "20") {
				t.Errorf("epic tip %q does not name the ride and its wait", tip)
			}
		}
	}
	if epic != 1 {
		t.Errorf("epic tips: got %d, want 1 (%q)", epic, got)
	}
	if len(got) != 1 {
		t.Errorf("Advise: got %d tips, want 1 (%q)", len(got), got)
	}
}

func TestAdvise_EpicTipUsesPicker(t *testing.T) {
	batch := []types.RideSample{
		at("Epic Universe", "Stardust Racers", types.StatusOpen, 20),
		at("Epic Universe", "Mine-Cart Madness", types.StatusOpen, 60), // over threshold
		at("Epic Universe", "Curse of the Werewolf", types.StatusOpen, 15),
		at("Epic Universe", "Hiccup's Wing Gliders", types.StatusOpen, 45),
	}
	var gotN int
	a := testAdvisor().WithPicker(func(n int) int { gotN = n; return n - 1 })

	got := a.Advise(batch)
	if gotN != 3 {
		t.Errorf("picker called with n=%d, want 3 qualifying rides", gotN)
	}
	if len(got) == 0 || !strings.Contains(got[0], "Hiccup's Wing Gliders") {
		t.Errorf("Advise: got %q, want the last qualifying ride", got)
	}
}

func TestAdvise_EpicTipIgnoresDelayed(t *testing.T) {
	batch := []types.RideSample{
		at("Epic Universe", "Stardust Racers", types.StatusDelayed, 0),
		at("Magic Kingdom", "Space Mountain", types.StatusOpen, 60),
	}
	got := testAdvisor().Advise(batch)
	if len(got) != 1 || got[0] != WelcomeTip {
		t.Errorf("Advise: got %q, want the welcome fallback", got)
	}
}

func TestAdvise_ValueAlerts(t *testing.T) {
	batch := []types.RideSample{
		at("Magic Kingdom", "Mine Train", types.StatusOpen, 50),
		at("Hollywood Studios", "Slinky Dog", types.StatusOpen, 51),
		at("Hollywood Studios", "Rise of the Resistance", types.StatusOpen, 35),
	}
	got := testAdvisor().Advise(batch)
	if len(got) != 2 {
		t.Fatalf("Advise: got %d tips, want 2 (%q)", len(got), got)
	}
	if !strings.Contains(got[0], "VALUE ALERT: Mine Train") || !strings.Contains(got[0], "50") {
		t.Errorf("tip 0: got %q", got[0])
	}
	if !strings.Contains(got[1], "Rise of the Resistance") {
		t.Errorf("tip 1: got %q", got[1])
	}
}

func TestAdvise_CapAtTwo(t *testing.T) {
	batch := []types.RideSample{
		at("Epic Universe", "Stardust Racers", types.StatusOpen, 10),
		at("Magic Kingdom", "Mine Train", types.StatusOpen, 20),
		at("Hollywood Studios", "Slinky Dog", types.StatusOpen, 25),
		at("Hollywood Studios", "Rise of the Resistance", types.StatusOpen, 30),
	}
	got := testAdvisor().Advise(batch)
	if len(got) != MaxTips {
		t.Fatalf("Advise: got %d tips, want %d (%q)", len(got), MaxTips, got)
	}
	if !strings.Contains(got[0], "EPIC TIP") {
		t.Errorf("tip 0: got %q, want the epic tip first", got[0])
	}
	if !strings.Contains(got[1], "Mine Train") {
		t.Errorf("tip 1: got %q, want the first marquee ride in batch order", got[1])
	}
}

func TestAdvise_GenericFallback(t *testing.T) {
	batch := []types.RideSample{
		at("Magic Kingdom", "Space Mountain", types.StatusOpen, 60),
		at("Magic Kingdom", "Mine Train", types.StatusOpen, 90),
	}
	got := testAdvisor().Advise(batch)
	if len(got) != 1 || got[0] != WelcomeTip {
		t.Errorf("Advise: got %q, want the welcome fallback", got)
	}
}
