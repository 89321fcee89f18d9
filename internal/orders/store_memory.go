package orders

import (
	"context"
	"sync"
	"time"

	"backoffice-platform/internal/apperr"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu      sync.Mutex
	orders  map[string]Order
	deleted map[string]bool

	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  make(map[string]Order),
		deleted: make(map[string]bool),
	}
}

func (m *MemoryStore) Create(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.orders[o.ID] = o
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return Order{}, m.Fail
	}
	o, ok := m.orders[id]
	if !ok || m.deleted[id] {
		return Order{}, apperr.ErrNotFound
	}
	return o, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []Order
	for id, o := range m.orders {
		if !m.deleted[id] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, expected time.Time, p OrderPatch, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	o, ok := m.orders[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !o.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	o.CustomerName = p.CustomerName
	o.TotalMinor = p.TotalMinor
	o.UpdatedAt = stamp
	m.orders[id] = o
	return nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, expected time.Time, status string, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	o, ok := m.orders[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !o.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	o.Status = status
	o.UpdatedAt = stamp
	m.orders[id] = o
	return nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, id string, expected, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	o, ok := m.orders[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !o.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	o.UpdatedAt = stamp
	m.orders[id] = o
	m.deleted[id] = true
	return nil
}
