package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/queuewatch/queuewatch/pkg/types"
)

// MemoryStore is a thread-safe in-memory sample log. Samples are only ever
// appended; readers copy out what they need under the read lock.
type MemoryStore struct {
	mu      sync.RWMutex
	samples []types.RideSample
	now     func() time.Time // injectable for deterministic tests
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Append(_ context.Context, samples ...types.RideSample) error {
	if len(samples) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *MemoryStore) RideHistory(_ context.Context, ride string, window time.Duration) ([]types.WaitPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	cutoff := now.Add(-window)
	out := make([]types.WaitPoint, 0)
	for _, smp := range s.samples {
		if smp.RideName != ride || !inWindow(smp.ObservedAt, cutoff, now) {
			continue
		}
		out = append(out, types.WaitPoint{At: smp.ObservedAt, Wait: smp.WaitMinutes})
	}
	// Append order is already chronological within a run; sort anyway so a
	// clock step between runs cannot reorder the chart.
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (s *MemoryStore) Recent(_ context.Context, window time.Duration, limit int) ([]types.RideSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	cutoff := now.Add(-window)
	out := make([]types.RideSample, 0)
	// Walk backwards so the newest samples are collected first.
	for i := len(s.samples) - 1; i >= 0; i-- {
		smp := s.samples[i]
		if inWindow(smp.ObservedAt, cutoff, now) {
			out = append(out, smp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples), nil
}

func (s *MemoryStore) Close() error { return nil }

func inWindow(t, cutoff, now time.Time) bool {
	return t.After(cutoff) && !t.After(now)
}

var _ Store = (*MemoryStore)(nil)
