// Package types defines the wait-time data shared by the ingestion cycle, the
// history stores and the presentation layer. These are the canonical in-memory
// representations, separate from the queue-times wire format and the SQL rows.
package types
