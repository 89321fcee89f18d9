package catalog

import (
	"context"
	"time"
)

// Store is the persistence contract for catalog entities. Update and
// SoftDelete are conditional writes: they apply only when the stored version
// token equals expected, and return apperr.ErrNotFound or
// apperr.ErrVersionConflict otherwise.
type Store interface {
	CreateCategory(ctx context.Context, c Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id string, expected time.Time, p CategoryPatch, stamp time.Time) error
	SoftDeleteCategory(ctx context.Context, id string, expected, stamp time.Time) error

	// LiveItemCount counts non-deleted items referencing the category,
	// for the delete-time dependency check.
	LiveItemCount(ctx context.Context, categoryID string) (int64, error)

	CreateItem(ctx context.Context, i Item) error
	GetItem(ctx context.Context, id string) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	UpdateItem(ctx context.Context, id string, expected time.Time, p ItemPatch, stamp time.Time) error
	SoftDeleteItem(ctx context.Context, id string, expected, stamp time.Time) error
}
