package authz

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory permission source useful for tests.
type MemoryStore struct {
	mu    sync.Mutex
	perms map[string][]string
	err   error

	// Fetches counts store round trips so tests can assert cache behavior.
	Fetches int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{perms: make(map[string][]string)}
}

func (m *MemoryStore) Grant(actorID string, perms ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.perms[actorID] = perms
}

// Fail makes every lookup return err, to exercise fail-closed paths.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryStore) PermissionsFor(ctx context.Context, actorID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fetches++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, len(m.perms[actorID]))
	copy(out, m.perms[actorID])
	return out, nil
}
