package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// SQLStore persists samples in a PostgreSQL table. Rows are only inserted.
type SQLStore struct {
	db    *sql.DB
	table string

	wmu sync.Mutex // one logical writer
	now func() time.Time
}

// NewSQL wraps db. table must be a plain identifier; config validation
// rejects anything else.
func NewSQL(db *sql.DB, table string) *SQLStore {
	if table == "" {
		table = "wait_history"
	}
	return &SQLStore{db: db, table: table, now: time.Now}
}

// Init creates the table and its ride/time index if they do not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS " + s.table + " (" +
			"id BIGSERIAL PRIMARY KEY, " +
			"ride_name TEXT NOT NULL, " +
			"park_name TEXT NOT NULL, " +
			"wait_time INTEGER NOT NULL, " +
			"status TEXT NOT NULL, " +
			"observed_at TIMESTAMPTZ NOT NULL)",
		"CREATE INDEX IF NOT EXISTS " + s.table + "_ride_time_idx ON " + s.table + " (ride_name, observed_at)",
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: init %s: %w", s.table, err)
		}
	}
	return nil
}

// Append inserts all samples with one multi-row INSERT.
func (s *SQLStore) Append(ctx context.Context, samples ...types.RideSample) error {
	if len(samples) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (ride_name, park_name, wait_time, status, observed_at) VALUES ")

	args := make([]any, 0, len(samples)*5)
	for i, smp := range samples {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args,
			smp.RideName,
			smp.ParkName,
			smp.WaitMinutes,
			string(smp.Status),
			smp.ObservedAt.UTC(),
		)
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("store: append %d samples: %w", len(samples), err)
	}
	return nil
}

func (s *SQLStore) RideHistory(ctx context.Context, ride string, window time.Duration) ([]types.WaitPoint, error) {
	now := s.now().UTC()
	q := "SELECT observed_at, wait_time FROM " + s.table +
		" WHERE ride_name = $1 AND observed_at > $2 AND observed_at <= $3" +
		" ORDER BY observed_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, ride, now.Add(-window), now)
	if err != nil {
		return nil, fmt.Errorf("store: ride history %q: %w", ride, err)
	}
	defer rows.Close()

	out := make([]types.WaitPoint, 0)
	for rows.Next() {
		var p types.WaitPoint
		if err := rows.Scan(&p.At, &p.Wait); err != nil {
			return nil, fmt.Errorf("store: scan ride history: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ride history %q: %w", ride, err)
	}
	return out, nil
}

func (s *SQLStore) Recent(ctx context.Context, window time.Duration, limit int) ([]types.RideSample, error) {
	now := s.now().UTC()
	q := "SELECT ride_name, park_name, wait_time, status, observed_at FROM " + s.table +
		" WHERE observed_at > $1 AND observed_at <= $2" +
		" ORDER BY observed_at DESC, id DESC"
	args := []any{now.Add(-window), now}
	if limit > 0 {
		q += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	out := make([]types.RideSample, 0)
	for rows.Next() {
		var (
			smp    types.RideSample
			status string
		)
		if err := rows.Scan(&smp.RideName, &smp.ParkName, &smp.WaitMinutes, &status, &smp.ObservedAt); err != nil {
			return nil, fmt.Errorf("store: scan recent: %w", err)
		}
		smp.Status = types.Status(status)
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

var _ Store = (*SQLStore)(nil)
