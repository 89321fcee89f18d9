package users

import (
	"context"
	"sync"
	"time"

	"backoffice-platform/internal/apperr"
)

// MemoryStore is an in-memory Store used by tests. Secrets are kept in
// plain text; only the Postgres store hashes.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]User
	secrets map[string]string
	roles   map[string]Role
	deleted map[string]bool

	// Fail, when set, is returned by every call.
	Fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]User),
		secrets: make(map[string]string),
		roles:   make(map[string]Role),
		deleted: make(map[string]bool),
	}
}

// AddRole seeds a role for tests.
func (m *MemoryStore) AddRole(r Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[r.ID] = r
}

func (m *MemoryStore) Create(_ context.Context, u User, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.users[u.ID] = u
	m.secrets[u.ID] = secret
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return User{}, m.Fail
	}
	u, ok := m.users[id]
	if !ok || m.deleted[id] {
		return User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) List(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []User
	for id, u := range m.users {
		if !m.deleted[id] {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, expected time.Time, p UserPatch, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	u, ok := m.users[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !u.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	u.Name = p.Name
	u.Email = p.Email
	u.RoleID = p.RoleID
	u.UpdatedAt = stamp
	m.users[id] = u
	return nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, id string, expected, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	u, ok := m.users[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !u.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	u.UpdatedAt = stamp
	m.users[id] = u
	m.deleted[id] = true
	return nil
}

func (m *MemoryStore) AssignRole(_ context.Context, id string, expected time.Time, roleID string, stamp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	u, ok := m.users[id]
	if !ok || m.deleted[id] {
		return apperr.ErrNotFound
	}
	if !u.UpdatedAt.Equal(expected) {
		return apperr.ErrVersionConflict
	}
	u.RoleID = roleID
	u.UpdatedAt = stamp
	m.users[id] = u
	return nil
}

func (m *MemoryStore) Authenticate(_ context.Context, email, secret string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return User{}, m.Fail
	}
	for id, u := range m.users {
		if u.Email == email && !m.deleted[id] && m.secrets[id] == secret {
			return u, nil
		}
	}
	return User{}, apperr.ErrAuthorizationDenied
}

func (m *MemoryStore) GetRole(_ context.Context, roleID string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return Role{}, m.Fail
	}
	r, ok := m.roles[roleID]
	if !ok {
		return Role{}, apperr.ErrNotFound
	}
	return r, nil
}

func (m *MemoryStore) SetRolePermissions(_ context.Context, roleID string, perms []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	r, ok := m.roles[roleID]
	if !ok {
		return apperr.ErrNotFound
	}
	r.Permissions = append([]string(nil), perms...)
	m.roles[roleID] = r
	return nil
}
