package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	defaultSeverity = "info"
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is one firing (or recently resolved) wait alert.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Ride       string     `json:"ride"`
	Park       string     `json:"park"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Wait       int        `json:"wait"`
	MaxWait    int        `json:"max_wait"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// Engine evaluates wait rules against ingestion batches and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: "ruleName:park"
	lastFire map[string]time.Time // cooldown bookkeeping, same key
	history  []*Alert             // resolved alerts, oldest first

	client *http.Client
	now    func() time.Time
}

// New creates an Engine from the alert configuration. An Engine with no rules
// is valid; Evaluate is then a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// SetRules swaps in a reloaded rule set and webhook list. Firing alerts whose
// rule no longer exists are dropped without notification.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks

	keep := make(map[string]struct{}, len(cfg.Rules))
	for _, r := range cfg.Rules {
		keep[r.Name] = struct{}{}
	}
	for key, a := range e.active {
		if _, ok := keep[a.RuleName]; !ok {
			delete(e.active, key)
		}
	}
	slog.Info("alerts: rules updated", "rules", len(cfg.Rules), "webhooks", len(cfg.Webhooks))
}

// Evaluate tests every rule against batch. Rules fire when a matching open
// ride's wait is at or below MaxWait, subject to the rule cooldown, and
// resolve when the ride is seen again above the threshold or not open.
// A ride missing from batch leaves its alert state unchanged.
// Webhook delivery happens asynchronously.
func (e *Engine) Evaluate(batch []types.RideSample) {
	e.mu.Lock()
	if len(e.rules) == 0 {
		e.mu.Unlock()
		return
	}

	now := e.now()
	var notify []Alert
	for _, rule := range e.rules {
		for _, s := range batch {
			if !matches(rule, s) {
				continue
			}
			key := alertKey(rule, s.ParkName)
			if fires(rule, s) {
				if a := e.fire(rule, key, s, now); a != nil {
					notify = append(notify, *a)
				}
			} else if a := e.resolve(key, s, now); a != nil {
				notify = append(notify, *a)
			}
		}
	}
	webhooks := e.webhooks
	e.mu.Unlock()

	for i := range notify {
		go e.deliver(webhooks, &notify[i])
	}
}

// fire records a new alert for key unless one is already firing or the
// cooldown has not elapsed. Called with mu held.
func (e *Engine) fire(rule config.AlertRule, key string, s types.RideSample, now time.Time) *Alert {
	if a, ok := e.active[key]; ok {
		a.Wait = s.WaitMinutes
		return nil
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := e.lastFire[key]; ok && now.Sub(last) < cooldown {
		return nil
	}
	sev := rule.Severity
	if sev == "" {
		sev = defaultSeverity
	}
	a := &Alert{
		ID:       uuid.NewString(),
		RuleName: rule.Name,
		Ride:     s.RideName,
		Park:     s.ParkName,
		Severity: sev,
		Wait:     s.WaitMinutes,
		MaxWait:  rule.MaxWait,
		Message: fmt.Sprintf("%s at %s is down to %d mins (threshold %d)",
			s.RideName, s.ParkName, s.WaitMinutes, rule.MaxWait),
		FiredAt: now,
		State:   StateFiring,
	}
	e.active[key] = a
	e.lastFire[key] = now

	slog.Warn("alerts: fired",
		"rule", rule.Name,
		"ride", s.RideName,
		"park", s.ParkName,
		"wait", s.WaitMinutes,
		"severity", sev,
	)
	return a
}

// resolve closes the firing alert for key, if any. Called with mu held.
func (e *Engine) resolve(key string, s types.RideSample, now time.Time) *Alert {
	a, ok := e.active[key]
	if !ok {
		return nil
	}
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	a.Wait = s.WaitMinutes
	if s.Open() {
		a.Message = fmt.Sprintf("%s at %s is back up to %d mins", s.RideName, s.ParkName, s.WaitMinutes)
	} else {
		a.Message = fmt.Sprintf("%s at %s is no longer open", s.RideName, s.ParkName)
	}
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}

	slog.Info("alerts: resolved", "rule", a.RuleName, "ride", a.Ride, "park", a.Park)
	return a
}

// Active returns copies of all firing alerts plus alerts resolved within the
// past hour, newest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return latest(out[i]).After(latest(out[j]))
	})
	return out
}

func latest(a Alert) time.Time {
	if a.ResolvedAt != nil {
		return *a.ResolvedAt
	}
	return a.FiredAt
}
