package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/queuewatch/queuewatch/pkg/types"
	"github.com/queuewatch/queuewatch/server/internal/config"
)

// Store is an append-only log of ride samples.
//
// Windows are measured back from the store's clock: a sample is inside a
// window w when now-w < ObservedAt ≤ now.
type Store interface {
	// Append records samples in order. Samples are never modified afterwards.
	Append(ctx context.Context, samples ...types.RideSample) error

	// RideHistory returns (time, wait) pairs for the exact ride name within
	// window, oldest first.
	RideHistory(ctx context.Context, ride string, window time.Duration) ([]types.WaitPoint, error)

	// Recent returns samples within window, newest first, at most limit.
	Recent(ctx context.Context, window time.Duration, limit int) ([]types.RideSample, error)

	// Count returns the total number of stored samples.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Open returns the Store selected by cfg.Driver. The postgres backend creates
// its table on first use.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		st := NewSQL(db, cfg.Table)
		if err := st.Init(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
