package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// RawRide is one ride record as decoded from a feed, before the exclusion set
// and the wait-time policy are applied.
type RawRide struct {
	Name   string
	IsOpen bool
	Wait   int
}

// ParseFeed decodes a queue-times park payload. The body must be a JSON
// object; everything inside it is read leniently. Rides come from
// lands[].rides[] first, then from the top-level rides[], in source order.
// Entries that are not JSON objects are skipped.
func ParseFeed(body []byte) ([]RawRide, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("decode feed: payload is null")
	}

	var out []RawRide
	for _, raw := range asArray(root["lands"]) {
		var land map[string]json.RawMessage
		if err := json.Unmarshal(raw, &land); err != nil || land == nil {
			continue
		}
		out = appendRides(out, land["rides"])
	}
	return appendRides(out, root["rides"]), nil
}

func appendRides(out []RawRide, raw json.RawMessage) []RawRide {
	for _, item := range asArray(raw) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			continue
		}
		out = append(out, RawRide{
			Name:   asName(fields["name"]),
			IsOpen: asBool(fields["is_open"]),
			Wait:   asInt(fields["wait_time"]),
		})
	}
	return out
}

func asArray(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func asName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return types.UnknownRide
	}
	return s
}

func asBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func asInt(raw json.RawMessage) int {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(math.Round(f))
}
