package sequence

import (
	"context"
	"sync"
)

// MemoryCounterStore is an in-memory CounterStore useful for tests. The
// mutex gives it the same atomic increment-and-return property the Postgres
// statement has.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
	err      error
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[string]int64)}
}

// Fail makes every increment return err.
func (s *MemoryCounterStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemoryCounterStore) Increment(ctx context.Context, kind, periodKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	key := kind + "|" + periodKey
	s.counters[key]++
	return s.counters[key], nil
}

// MemoryPatternStore is an in-memory PatternStore useful for tests.
type MemoryPatternStore struct {
	mu       sync.Mutex
	patterns map[string]string
}

func NewMemoryPatternStore() *MemoryPatternStore {
	return &MemoryPatternStore{patterns: make(map[string]string)}
}

func (s *MemoryPatternStore) Get(ctx context.Context, kind string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns[kind], nil
}

func (s *MemoryPatternStore) Set(ctx context.Context, kind, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[kind] = raw
	return nil
}
