package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/queuewatch/queuewatch/server/internal/config"
)

// payloadFunc renders an alert into the JSON body one webhook type expects.
type payloadFunc func(a *Alert) any

var payloads = map[string]payloadFunc{
	"slack": slackPayload,
	"teams": teamsPayload,
	"http":  httpPayload,
}

// deliver sends a to every webhook target. Errors are logged and otherwise
// ignored.
func (e *Engine) deliver(webhooks []config.WebhookConfig, a *Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		render, ok := payloads[wh.Type]
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		body, err := json.Marshal(render(a))
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type, "rule", a.RuleName, "ride", a.Ride, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type, "rule", a.RuleName, "ride", a.Ride, "state", a.State)
	}
}

// slackPayload is a text line plus a colored attachment with the ride facts.
func slackPayload(a *Alert) any {
	return map[string]any{
		"text": fmt.Sprintf("*%s* %s", stateLabel(a), a.Message),
		"attachments": []map[string]any{{
			"color": "#" + severityColor(a),
			"fields": []map[string]any{
				{"title": "Ride", "value": a.Ride, "short": true},
				{"title": "Park", "value": a.Park, "short": true},
				{"title": "Wait", "value": waitText(a), "short": true},
			},
		}},
	}
}

// teamsPayload is a legacy MessageCard with the ride facts in one section.
func teamsPayload(a *Alert) any {
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a),
		"summary":    a.Message,
		"title":      fmt.Sprintf("%s %s", stateLabel(a), a.Ride),
		"sections": []map[string]any{{
			"activityTitle":    a.Ride,
			"activitySubtitle": a.Park,
			"facts": []map[string]string{
				{"name": "Wait", "value": waitText(a)},
				{"name": "Rule", "value": a.RuleName},
				{"name": "State", "value": a.State},
			},
			"text": a.Message,
		}},
	}
}

// httpPayload carries the full alert under an event name.
func httpPayload(a *Alert) any {
	return map[string]any{
		"event": "wait_alert." + a.State,
		"alert": a,
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func waitText(a *Alert) string {
	return fmt.Sprintf("%d min (alert at %d)", a.Wait, a.MaxWait)
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[SHORT WAIT]"
	}
}

func severityColor(a *Alert) string {
	if a.State == StateResolved {
		return "8A8F98"
	}
	switch a.Severity {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
