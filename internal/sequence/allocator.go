package sequence

import (
	"context"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
)

// CounterStore increments and returns a per-(kind, period) counter in a
// single atomic store operation. The race safety of the allocator rests
// entirely on this being one round trip, never a read-modify-write in
// application code.
type CounterStore interface {
	Increment(ctx context.Context, kind, periodKey string) (int64, error)
}

// PatternStore holds the configured pattern per entity kind.
// Get returns "" when no pattern has been configured.
type PatternStore interface {
	Get(ctx context.Context, kind string) (string, error)
	Set(ctx context.Context, kind, raw string) error
}

// DefaultPatterns apply until an operator configures something else.
var DefaultPatterns = map[string]string{
	"order": "ORD[YY][5DIGIT]",
}

type Allocator struct {
	counters CounterStore
	patterns PatternStore
	clock    func() time.Time
}

func NewAllocator(counters CounterStore, patterns PatternStore) *Allocator {
	return &Allocator{counters: counters, patterns: patterns, clock: time.Now}
}

// SetClock substitutes the time source for tests.
func (a *Allocator) SetClock(clock func() time.Time) { a.clock = clock }

// Next allocates the next number for kind. A store failure propagates: a
// mutation that needs a number cannot proceed without one.
func (a *Allocator) Next(ctx context.Context, kind string) (string, error) {
	p, err := a.patternFor(ctx, kind)
	if err != nil {
		return "", err
	}

	now := a.clock()
	value, err := a.counters.Increment(ctx, kind, p.PeriodKey(now))
	if err != nil {
		return "", fmt.Errorf("sequence: increment %s counter: %w", kind, err)
	}
	return p.Format(now, value), nil
}

// PatternFor returns the effective raw pattern for kind, configured or default.
func (a *Allocator) PatternFor(ctx context.Context, kind string) (string, error) {
	p, err := a.patternFor(ctx, kind)
	if err != nil {
		return "", err
	}
	return p.Raw, nil
}

// SetPattern validates raw and stores it; invalid patterns are rejected
// synchronously with the parser's reason.
func (a *Allocator) SetPattern(ctx context.Context, kind, raw string) error {
	if _, err := ParsePattern(raw); err != nil {
		return err
	}
	return a.patterns.Set(ctx, kind, raw)
}

func (a *Allocator) patternFor(ctx context.Context, kind string) (Pattern, error) {
	raw, err := a.patterns.Get(ctx, kind)
	if err != nil {
		return Pattern{}, fmt.Errorf("sequence: load %s pattern: %w", kind, err)
	}
	if raw == "" {
		raw = DefaultPatterns[kind]
	}
	if raw == "" {
		return Pattern{}, apperr.Validationf("no number pattern configured for %q", kind)
	}
	return ParsePattern(raw)
}
