package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/invalidation"
	"backoffice-platform/internal/sequence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *MemoryStore
	counters *sequence.MemoryCounterStore
	repo     *audit.MemoryRepo
	rec      *audit.Recorder
	inval    *invalidation.Memory
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemoryStore(),
		counters: sequence.NewMemoryCounterStore(),
		repo:     audit.NewMemoryRepo(),
		inval:    &invalidation.Memory{},
	}
	alloc := sequence.NewAllocator(f.counters, sequence.NewMemoryPatternStore())
	alloc.SetClock(func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) })
	f.rec = audit.NewRecorder(f.repo, discardLogger(), 16)
	n := 0
	f.svc = NewService(f.store, alloc, f.rec, f.inval, func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return f
}

func (f *fixture) drained() []audit.Entry {
	f.rec.Close()
	return f.repo.Entries()
}

func actorCtx() context.Context {
	return auth.WithIdentity(context.Background(), "u1", "Priya")
}

func TestCreate_MintsSequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	a, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Globex", TotalMinor: 2500})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if a.Number != "ORD2400001" || b.Number != "ORD2400002" {
		t.Fatalf("numbers = %q, %q", a.Number, b.Number)
	}
	if a.Status != StatusPending {
		t.Fatalf("new order status = %q", a.Status)
	}

	es := f.drained()
	if len(es) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(es))
	}
	if es[0].ResourceID != a.Number && es[1].ResourceID != a.Number {
		t.Fatalf("audit entries keyed by %q/%q, want order number", es[0].ResourceID, es[1].ResourceID)
	}
}

func TestCreate_AllocationFailureAbortsBeforeWrite(t *testing.T) {
	f := newFixture(t)
	f.counters.Fail(errors.New("counters down"))

	_, err := f.svc.Create(actorCtx(), OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err == nil {
		t.Fatalf("expected error")
	}

	got, err := f.svc.List(actorCtx())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("aborted create left %d orders behind", len(got))
	}
	if len(f.drained()) != 0 {
		t.Fatalf("aborted create recorded an audit entry")
	}
}

func TestUpdate_StaleTokenConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	o, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	shared := o.UpdatedAt
	if _, err := f.svc.Update(ctx, o.ID, shared, OrderPatch{CustomerName: "Acme Corp", TotalMinor: 1000}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err = f.svc.Update(ctx, o.ID, shared, OrderPatch{CustomerName: "Acme Ltd", TotalMinor: 1000})
	if !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestUpdateStatus_EnforcesLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	o, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// pending -> shipped skips paid.
	_, err = f.svc.UpdateStatus(ctx, o.ID, o.UpdatedAt, StatusShipped)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	paid, err := f.svc.UpdateStatus(ctx, o.ID, o.UpdatedAt, StatusPaid)
	if err != nil {
		t.Fatalf("pending->paid: %v", err)
	}
	shipped, err := f.svc.UpdateStatus(ctx, paid.ID, paid.UpdatedAt, StatusShipped)
	if err != nil {
		t.Fatalf("paid->shipped: %v", err)
	}

	// shipped is terminal.
	_, err = f.svc.UpdateStatus(ctx, shipped.ID, shipped.UpdatedAt, StatusCancelled)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatus_DiffRecordsTransition(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	o, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, o.ID, o.UpdatedAt, StatusPaid); err != nil {
		t.Fatalf("update status: %v", err)
	}

	var upd *audit.Entry
	for _, e := range f.drained() {
		if e.Action == audit.ActionUpdate {
			e := e
			upd = &e
		}
	}
	if upd == nil {
		t.Fatalf("expected an update entry")
	}
	want := `[{"field":"status","from":"pending","to":"paid"}]`
	if string(upd.Changes) != want {
		t.Fatalf("changes = %s, want %s", upd.Changes, want)
	}
}

func TestDelete_RecordsCustomerInMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	o, err := f.svc.Create(ctx, OrderPatch{CustomerName: "Acme", TotalMinor: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Delete(ctx, o.ID, o.UpdatedAt); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var del *audit.Entry
	for _, e := range f.drained() {
		if e.Action == audit.ActionDelete {
			e := e
			del = &e
		}
	}
	if del == nil {
		t.Fatalf("expected a delete entry")
	}
	if del.ResourceID != o.Number {
		t.Fatalf("delete keyed by %q, want %q", del.ResourceID, o.Number)
	}
	if string(del.Metadata) != `{"customer_name":"Acme"}` {
		t.Fatalf("metadata = %s", del.Metadata)
	}
}
