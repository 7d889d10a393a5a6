// Package compute derives the dashboard's summaries from one ingestion batch.
//
// rank.go provides TopWaits: open rides sorted by wait, longest first, stable
// on batch order, capped at a limit (5 on the dashboard).
//
// advice.go provides the Advisor, which produces at most two hints:
//
//	no open rides          → "quiet parks" fallback, nothing else
//	newest park, wait ≤ 45 → one uniformly chosen "epic tip"
//	marquee ride, wait ≤ 50 → a "value alert" per ride, in batch order
//	none of the above      → generic fallback
//
// Both functions read the batch and never modify it.
package compute
