// Package api implements the queuewatch HTTP surface.
//
// New(opts) returns an http.Handler that serves:
//
//	GET /                        dashboard; runs a full poll cycle per load
//	GET /history                 recent sample log (12h, newest first, max 200)
//	GET /api/history/{ride}      per-ride [{"time":"HH:MM","wait":N}], oldest first
//	GET /api/v1/board            latest board as JSON, no new cycle
//	GET /api/v1/alerts           firing and recently resolved wait alerts
//	GET /healthz                 liveness plus stored sample count
//	GET /metrics                 Prometheus exposition, when configured
//	GET /ws/stream               live board push, when configured
//
// Ride names in /api/history may contain "/". Store failures never fail a
// page: reads degrade to empty results. Non-GET methods get a JSON 405.
package api
