// Package scraper fetches queue-times park feeds and turns them into
// RideSamples.
//
// base.go builds the shared *http.Client (timeout, browser-like User-Agent via
// uaRoundTripper) and the outbound rate limiter; Client.Scrape returns one
// ParkResult per park and never returns an error: a failed fetch is recorded in
// ParkResult.Err so the caller can skip that park for the cycle.
//
// parse.go is the tolerant decoding step: arbitrary JSON is mapped onto
// RawRide values, and absent or wrong-typed fields take documented defaults
// (name → types.UnknownRide, is_open → false, wait_time → 0).
//
// transform.go applies the exclusion set and the wait-time policy:
// open rides reporting 0 or less show 5 minutes, closed rides show 0.
package scraper
