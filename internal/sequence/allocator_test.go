package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"
)

func newTestAllocator(t *testing.T, pattern string, now time.Time) (*Allocator, *MemoryCounterStore) {
	t.Helper()
	counters := NewMemoryCounterStore()
	patterns := NewMemoryPatternStore()
	if err := patterns.Set(context.Background(), "order", pattern); err != nil {
		t.Fatalf("set pattern: %v", err)
	}
	a := NewAllocator(counters, patterns)
	a.SetClock(func() time.Time { return now })
	return a, counters
}

func TestNext_YearScopedCountersStartAtOne(t *testing.T) {
	day2024 := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	a, _ := newTestAllocator(t, "ORD[YY][3DIGIT]", day2024)

	first, err := a.Next(context.Background(), "order")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first != "ORD24001" {
		t.Fatalf("expected ORD24001, got %q", first)
	}

	second, _ := a.Next(context.Background(), "order")
	if second != "ORD24002" {
		t.Fatalf("expected ORD24002, got %q", second)
	}

	// Year rollover: independent counter, starts from 1 regardless of the
	// 2024 counter's final value.
	a.SetClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC) })
	next, _ := a.Next(context.Background(), "order")
	if next != "ORD25001" {
		t.Fatalf("expected ORD25001, got %q", next)
	}
}

func TestNext_DayScopedPatternSubstitutesDates(t *testing.T) {
	day := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	a, _ := newTestAllocator(t, "ORD[YY][3DIGIT][MM][DD]", day)

	got, err := a.Next(context.Background(), "order")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != "ORD240010315" {
		t.Fatalf("expected ORD240010315, got %q", got)
	}

	// Next day, new period, counter restarts.
	a.SetClock(func() time.Time { return day.AddDate(0, 0, 1) })
	got, _ = a.Next(context.Background(), "order")
	if got != "ORD240010316" {
		t.Fatalf("expected fresh counter on new day, got %q", got)
	}
}

func TestNext_ConcurrentAllocationsAreDistinctAndGapFree(t *testing.T) {
	a, _ := newTestAllocator(t, "[6DIGIT]", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	const n = 100
	results := make(chan string, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			num, err := a.Next(context.Background(), "order")
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			results <- num
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	seen := make(map[int]bool, n)
	for num := range results {
		v, err := strconv.Atoi(num)
		if err != nil {
			t.Fatalf("non-numeric allocation %q", num)
		}
		if seen[v] {
			t.Fatalf("duplicate allocation %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d allocations, got %d", n, len(seen))
	}
	for i := 1; i <= n; i++ {
		if !seen[i] {
			t.Fatalf("gap at %d", i)
		}
	}
}

func TestNext_CounterStoreFailurePropagates(t *testing.T) {
	a, counters := newTestAllocator(t, "ORD[YY][3DIGIT]", time.Now())
	counters.Fail(errors.New("store unavailable"))

	if _, err := a.Next(context.Background(), "order"); err == nil {
		t.Fatalf("expected allocation failure to propagate")
	}
}

func TestNext_FallsBackToDefaultPattern(t *testing.T) {
	a := NewAllocator(NewMemoryCounterStore(), NewMemoryPatternStore())
	a.SetClock(func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) })

	got, err := a.Next(context.Background(), "order")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	want := fmt.Sprintf("ORD24%05d", 1)
	if got != want {
		t.Fatalf("expected default pattern %q, got %q", want, got)
	}
}

func TestSetPattern_RejectsInvalidBeforeStoring(t *testing.T) {
	patterns := NewMemoryPatternStore()
	a := NewAllocator(NewMemoryCounterStore(), patterns)

	if err := a.SetPattern(context.Background(), "order", "ORD[YY]"); err == nil {
		t.Fatalf("expected rejection")
	}
	raw, _ := patterns.Get(context.Background(), "order")
	if raw != "" {
		t.Fatalf("invalid pattern must not be stored, got %q", raw)
	}
}
