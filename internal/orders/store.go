package orders

import (
	"context"
	"time"
)

// Store persists orders. Update and SoftDelete are conditional on the
// caller's version token.
type Store interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, id string, expected time.Time, p OrderPatch, stamp time.Time) error
	UpdateStatus(ctx context.Context, id string, expected time.Time, status string, stamp time.Time) error
	SoftDelete(ctx context.Context, id string, expected, stamp time.Time) error
}
