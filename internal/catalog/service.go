package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/invalidation"
	"backoffice-platform/internal/versioned"
)

// Service runs catalog mutations through the full pipeline: validate, apply
// the conditional write, then (only after the write is confirmed) dispatch
// the audit diff and signal stale client caches.
type Service struct {
	store Store
	rec   *audit.Recorder
	inval invalidation.Invalidator
	clock func() time.Time
	newID func() string
}

func NewService(store Store, rec *audit.Recorder, inval invalidation.Invalidator, newID func() string) *Service {
	return &Service{
		store: store,
		rec:   rec,
		inval: inval,
		clock: time.Now,
		newID: newID,
	}
}

// SetClock substitutes the time source for tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

/* ===================== CATEGORIES ===================== */

func (s *Service) CreateCategory(ctx context.Context, p CategoryPatch) (Category, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Category{}, apperr.ErrAuthorizationDenied
	}
	if err := validateCategory(p); err != nil {
		return Category{}, err
	}

	c := Category{
		ID:        s.newID(),
		Code:      p.Code,
		Name:      p.Name,
		SortOrder: p.SortOrder,
		UpdatedAt: versioned.Stamp(s.clock()),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}

	s.rec.Record(actor, audit.ActionCreate, audit.ResourceCategory, c.Code, nil,
		map[string]string{"name": c.Name})
	s.inval.Invalidate(ctx, "category")
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, expected time.Time, p CategoryPatch) (Category, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Category{}, apperr.ErrAuthorizationDenied
	}
	if err := validateCategory(p); err != nil {
		return Category{}, err
	}

	old, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.UpdateCategory(ctx, id, expected, p, stamp); err != nil {
		return Category{}, err
	}

	updated := old
	updated.Code = p.Code
	updated.Name = p.Name
	updated.SortOrder = p.SortOrder
	updated.UpdatedAt = stamp

	changes := audit.Diff(old.auditState(), updated.auditState(), categoryAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceCategory, updated.Code, changes, nil)
	s.inval.Invalidate(ctx, "category")
	return updated, nil
}

// DeleteCategory refuses to remove a category that live items still
// reference; clearing the dependents first is the caller's problem. A
// refused delete records no audit entry.
func (s *Service) DeleteCategory(ctx context.Context, id string, expected time.Time) error {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return apperr.ErrAuthorizationDenied
	}

	old, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.store.LiveItemCount(ctx, id)
	if err != nil {
		return fmt.Errorf("count category items: %w", err)
	}
	if n > 0 {
		return apperr.Newf(apperr.KindDependencyConflict, "category %q has %d items; remove them first", old.Code, n)
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.SoftDeleteCategory(ctx, id, expected, stamp); err != nil {
		return err
	}

	s.rec.Record(actor, audit.ActionDelete, audit.ResourceCategory, old.Code, nil,
		map[string]string{"name": old.Name})
	s.inval.Invalidate(ctx, "category")
	return nil
}

func validateCategory(p CategoryPatch) error {
	if p.Code == "" {
		return apperr.Validationf("category code is required")
	}
	if p.Name == "" {
		return apperr.Validationf("category name is required")
	}
	return nil
}

/* ===================== ITEMS ===================== */

func (s *Service) CreateItem(ctx context.Context, p ItemPatch) (Item, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Item{}, apperr.ErrAuthorizationDenied
	}
	if err := s.validateItem(ctx, p); err != nil {
		return Item{}, err
	}

	i := Item{
		ID:         s.newID(),
		SKU:        p.SKU,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		PriceMinor: p.PriceMinor,
		Available:  p.Available,
		UpdatedAt:  versioned.Stamp(s.clock()),
	}
	if err := s.store.CreateItem(ctx, i); err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}

	s.rec.Record(actor, audit.ActionCreate, audit.ResourceItem, i.SKU, nil,
		map[string]string{"name": i.Name})
	s.inval.Invalidate(ctx, "item")
	return i, nil
}

func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.store.ListItems(ctx)
}

func (s *Service) UpdateItem(ctx context.Context, id string, expected time.Time, p ItemPatch) (Item, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Item{}, apperr.ErrAuthorizationDenied
	}
	if err := s.validateItem(ctx, p); err != nil {
		return Item{}, err
	}

	old, err := s.store.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.UpdateItem(ctx, id, expected, p, stamp); err != nil {
		return Item{}, err
	}

	updated := old
	updated.SKU = p.SKU
	updated.Name = p.Name
	updated.CategoryID = p.CategoryID
	updated.PriceMinor = p.PriceMinor
	updated.Available = p.Available
	updated.UpdatedAt = stamp

	changes := audit.Diff(old.auditState(), updated.auditState(), itemAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceItem, updated.SKU, changes, nil)
	s.inval.Invalidate(ctx, "item")
	return updated, nil
}

func (s *Service) DeleteItem(ctx context.Context, id string, expected time.Time) error {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return apperr.ErrAuthorizationDenied
	}

	old, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.SoftDeleteItem(ctx, id, expected, stamp); err != nil {
		return err
	}

	s.rec.Record(actor, audit.ActionDelete, audit.ResourceItem, old.SKU, nil,
		map[string]string{"name": old.Name})
	s.inval.Invalidate(ctx, "item")
	return nil
}

func (s *Service) validateItem(ctx context.Context, p ItemPatch) error {
	if p.SKU == "" {
		return apperr.Validationf("item sku is required")
	}
	if p.Name == "" {
		return apperr.Validationf("item name is required")
	}
	if p.PriceMinor < 0 {
		return apperr.Validationf("item price must not be negative")
	}
	if p.CategoryID == "" {
		return apperr.Validationf("item category is required")
	}
	if _, err := s.store.GetCategory(ctx, p.CategoryID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validationf("unknown category %q", p.CategoryID)
		}
		return err
	}
	return nil
}
