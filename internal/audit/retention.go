package audit

import (
	"context"
	"log/slog"
	"time"
)

// RetentionDays is the static per-resource retention table. Financial data
// is kept far longer than routine CRUD or auth noise. Not runtime
// configurable; change it here and redeploy.
var RetentionDays = map[ResourceKind]int{
	ResourceOrder:    2555, // ~7 years
	ResourceUser:     730,
	ResourceRole:     730,
	ResourceCategory: 365,
	ResourceItem:     365,
	ResourceAuth:     90,
}

// Janitor applies the retention table. Cleanup deletes, Preview only counts;
// both compute the same per-kind cutoffs so a preview is an exact dry run.
type Janitor struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewJanitor(repo Repository, log *slog.Logger) *Janitor {
	return &Janitor{repo: repo, log: log, clock: time.Now}
}

// SetClock substitutes the time source for tests.
func (j *Janitor) SetClock(clock func() time.Time) { j.clock = clock }

// Cleanup deletes entries strictly older than each kind's retention window
// and returns the count deleted per kind.
func (j *Janitor) Cleanup(ctx context.Context) (map[ResourceKind]int64, error) {
	return j.sweep(ctx, func(kind ResourceKind, cutoff time.Time) (int64, error) {
		n, err := j.repo.DeleteOlderThan(ctx, kind, cutoff)
		if err == nil && n > 0 {
			j.log.Info("audit retention cleanup", "resource", kind, "cutoff", cutoff, "deleted", n)
		}
		return n, err
	})
}

// Preview reports what Cleanup would delete, without deleting.
func (j *Janitor) Preview(ctx context.Context) (map[ResourceKind]int64, error) {
	return j.sweep(ctx, func(kind ResourceKind, cutoff time.Time) (int64, error) {
		return j.repo.CountOlderThan(ctx, kind, cutoff)
	})
}

func (j *Janitor) sweep(ctx context.Context, op func(ResourceKind, time.Time) (int64, error)) (map[ResourceKind]int64, error) {
	now := j.clock().UTC()
	out := make(map[ResourceKind]int64, len(RetentionDays))
	for kind, days := range RetentionDays {
		cutoff := now.AddDate(0, 0, -days)
		n, err := op(kind, cutoff)
		if err != nil {
			return out, err
		}
		out[kind] = n
	}
	return out, nil
}
