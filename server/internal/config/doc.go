// Package config loads and watches the queuewatch configuration file.
//
// Top-level sections:
//   - server    : http_port, auth (apikey | none) for the operational endpoints
//   - log       : slog level
//   - source    : queue-times base URL, user agent, timeout (10s), rate limit
//   - parks     : display name → queue-times id, plus an opening-hours string
//   - exclusions: ride names that never produce samples
//   - advice    : newest park, marquee rides and their wait thresholds
//   - history   : 24h ride window, 12h/200 log view, label timezone
//   - storage   : memory | postgres; the DSN comes from the env var in dsn_env
//   - refresh   : optional background poll interval, WebSocket push interval
//   - alerts    : wait alert rules and webhook targets
//
// Load(path) starts from Default() (the seven Orlando parks), overlays the YAML
// file, then validates struct tags with go-playground/validator and the
// cross-field rules by hand. An empty path runs on the defaults alone.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write and
// hands the new Config to onChange. Reload failures keep the previous config.
package config
