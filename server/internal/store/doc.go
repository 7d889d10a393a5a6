// Package store holds the append-only wait-time history and answers the two
// read patterns the dashboard needs: one ride's (time, wait) series within a
// window, and the most recent samples across all rides.
//
// MemoryStore keeps samples in a slice behind a sync.RWMutex: one writer at a
// time, any number of concurrent readers, no in-place mutation. SQLStore
// persists to PostgreSQL through database/sql and lib/pq. Open(cfg) picks the
// backend from storage.driver. Neither backend offers update or delete.
package store
