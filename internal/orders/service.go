package orders

import (
	"context"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/invalidation"
	"backoffice-platform/internal/sequence"
	"backoffice-platform/internal/versioned"
)

// Service mints order numbers through the sequence allocator and runs every
// mutation through the conditional-write pipeline. If number allocation
// fails the create is aborted before any row is written, so the sequence
// never skips a value for an order that does not exist.
type Service struct {
	store Store
	seq   *sequence.Allocator
	rec   *audit.Recorder
	inval invalidation.Invalidator
	clock func() time.Time
	newID func() string
}

func NewService(store Store, seq *sequence.Allocator, rec *audit.Recorder, inval invalidation.Invalidator, newID func() string) *Service {
	return &Service{
		store: store,
		seq:   seq,
		rec:   rec,
		inval: inval,
		clock: time.Now,
		newID: newID,
	}
}

// SetClock substitutes the time source for tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

func (s *Service) Create(ctx context.Context, p OrderPatch) (Order, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Order{}, apperr.ErrAuthorizationDenied
	}
	if err := validatePatch(p); err != nil {
		return Order{}, err
	}

	number, err := s.seq.Next(ctx, "order")
	if err != nil {
		return Order{}, fmt.Errorf("allocate order number: %w", err)
	}

	o := Order{
		ID:           s.newID(),
		Number:       number,
		CustomerName: p.CustomerName,
		Status:       StatusPending,
		TotalMinor:   p.TotalMinor,
		UpdatedAt:    versioned.Stamp(s.clock()),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	s.rec.Record(actor, audit.ActionCreate, audit.ResourceOrder, o.Number, nil,
		map[string]string{"customer_name": o.CustomerName})
	s.inval.Invalidate(ctx, "order")
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.store.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, expected time.Time, p OrderPatch) (Order, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Order{}, apperr.ErrAuthorizationDenied
	}
	if err := validatePatch(p); err != nil {
		return Order{}, err
	}

	old, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.Update(ctx, id, expected, p, stamp); err != nil {
		return Order{}, err
	}

	updated := old
	updated.CustomerName = p.CustomerName
	updated.TotalMinor = p.TotalMinor
	updated.UpdatedAt = stamp

	changes := audit.Diff(old.auditState(), updated.auditState(), orderAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceOrder, updated.Number, changes, nil)
	s.inval.Invalidate(ctx, "order")
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, expected time.Time, status string) (Order, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Order{}, apperr.ErrAuthorizationDenied
	}
	if !validStatus(status) {
		return Order{}, apperr.Validationf("unknown status %q", status)
	}

	old, err := s.store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !transitionAllowed(old.Status, status) {
		return Order{}, apperr.Validationf("cannot move order from %s to %s", old.Status, status)
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.UpdateStatus(ctx, id, expected, status, stamp); err != nil {
		return Order{}, err
	}

	updated := old
	updated.Status = status
	updated.UpdatedAt = stamp

	changes := audit.Diff(old.auditState(), updated.auditState(), orderAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceOrder, updated.Number, changes, nil)
	s.inval.Invalidate(ctx, "order")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string, expected time.Time) error {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return apperr.ErrAuthorizationDenied
	}

	old, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.SoftDelete(ctx, id, expected, stamp); err != nil {
		return err
	}

	s.rec.Record(actor, audit.ActionDelete, audit.ResourceOrder, old.Number, nil,
		map[string]string{"customer_name": old.CustomerName})
	s.inval.Invalidate(ctx, "order")
	return nil
}

func validatePatch(p OrderPatch) error {
	if p.CustomerName == "" {
		return apperr.Validationf("customer name is required")
	}
	if p.TotalMinor < 0 {
		return apperr.Validationf("order total must not be negative")
	}
	return nil
}
