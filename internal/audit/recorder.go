package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Recorder dispatches audit entries off the request's critical path.
//
// Record enqueues and returns immediately; a single worker goroutine drains
// the queue. Any failure inside the worker (serialization already happened,
// so store failures and panics) is logged and swallowed: the triggering
// mutation has already committed and is not rolled back, retried, or told.
type Recorder struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time

	ch        chan Entry
	wg        sync.WaitGroup
	closeOnce sync.Once
}

const appendTimeout = 5 * time.Second

func NewRecorder(repo Repository, log *slog.Logger, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		repo:  repo,
		log:   log,
		clock: time.Now,
		ch:    make(chan Entry, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// SetClock substitutes the time source for tests. Call before any Record.
func (r *Recorder) SetClock(clock func() time.Time) { r.clock = clock }

// Record captures one mutation. changes and metadata are optional; both are
// serialized here so a marshal failure is also isolated from the caller.
// When the queue is full the entry is dropped with a warning rather than
// blocking the mutation response.
func (r *Recorder) Record(actorID string, action Action, kind ResourceKind, resourceID string, changes []FieldChange, metadata map[string]string) {
	e := Entry{
		ActorID:    actorID,
		Action:     action,
		Resource:   kind,
		ResourceID: resourceID,
		CreatedAt:  r.clock().UTC(),
	}

	if len(changes) > 0 {
		b, err := json.Marshal(changes)
		if err != nil {
			r.log.Error("audit: marshal changes failed", "resource", kind, "resource_id", resourceID, "err", err)
			return
		}
		e.Changes = b
	}
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			r.log.Error("audit: marshal metadata failed", "resource", kind, "resource_id", resourceID, "err", err)
			return
		}
		e.Metadata = b
	}

	select {
	case r.ch <- e:
	default:
		r.log.Warn("audit: queue full, entry dropped", "resource", kind, "resource_id", resourceID, "action", action)
	}
}

// Close stops accepting entries and drains the queue. Call on shutdown.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() { close(r.ch) })
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for e := range r.ch {
		r.append(e)
	}
}

func (r *Recorder) append(e Entry) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("audit: append panicked", "resource", e.Resource, "resource_id", e.ResourceID, "panic", p)
		}
	}()

	// The request context is long gone; the append gets its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
	defer cancel()

	if err := r.repo.Append(ctx, e); err != nil {
		r.log.Error("audit: append failed", "resource", e.Resource, "resource_id", e.ResourceID, "action", e.Action, "err", err)
	}
}
