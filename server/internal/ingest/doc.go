// Package ingest runs the poll cycle: fetch every configured park in
// parallel, normalize the feeds into samples, append them to the history
// store, and assemble a Board with the ranking and advice for display.
package ingest
