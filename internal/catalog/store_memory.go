package catalog

import (
	"context"
	"sync"
	"time"

	"backoffice-platform/internal/apperr"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu         sync.Mutex
	categories map[string]Category
	items      map[string]Item
	deleted    map[string]bool

	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[string]Category),
		items:      make(map[string]Item),
		deleted:    make(map[string]bool),
	}
}

func (m *MemoryStore) CreateCategory(_ context.Context, c Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.categories[c.ID] = c
	return nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id string) (Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return Category{}, m.Fail
	}
	c, ok := m.categories[id]
	if !ok || m.deleted[id] {
		return Category{}, apperr.ErrNotFound
	}
	return c, nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []Category
	for id, c := range m.categories {
		if !m.deleted[id] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateCategory(_ context.Context, id string, expected time.Time, p CategoryPatch, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	c, ok := m.categories[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !c.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	c.Code = p.Code
	c.Name = p.Name
	c.SortOrder = p.SortOrder
	c.UpdatedAt = stamp
	m.categories[id] = c
	return nil
}

func (m *MemoryStore) SoftDeleteCategory(_ context.Context, id string, expected, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	c, ok := m.categories[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !c.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	c.UpdatedAt = stamp
	m.categories[id] = c
	m.deleted[id] = true
	return nil
}

func (m *MemoryStore) LiveItemCount(_ context.Context, categoryID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	var n int64
	for id, i := range m.items {
		if i.CategoryID == categoryID && !m.deleted[id] {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateItem(_ context.Context, i Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.items[i.ID] = i
	return nil
}

func (m *MemoryStore) GetItem(_ context.Context, id string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return Item{}, m.Fail
	}
	i, ok := m.items[id]
	if !ok || m.deleted[id] {
		return Item{}, apperr.ErrNotFound
	}
	return i, nil
}

func (m *MemoryStore) ListItems(_ context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []Item
	for id, i := range m.items {
		if !m.deleted[id] {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, id string, expected time.Time, p ItemPatch, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	i, ok := m.items[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !i.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	i.SKU = p.SKU
	i.Name = p.Name
	i.CategoryID = p.CategoryID
	i.PriceMinor = p.PriceMinor
	i.Available = p.Available
	i.UpdatedAt = stamp
	m.items[id] = i
	return nil
}

func (m *MemoryStore) SoftDeleteItem(_ context.Context, id string, expected, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	i, ok := m.items[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !i.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	i.UpdatedAt = stamp
	m.items[id] = i
	m.deleted[id] = true
	return nil
}
