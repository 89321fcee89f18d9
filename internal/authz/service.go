// Package authz resolves actor permissions through an in-process TTL cache.
//
// The cache is constructed once at process start and passed by reference to
// every check; there is no package-level state, so tests can substitute a
// clock and a fresh instance per test.
package authz

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Permission names. Keep these stable; they are part of the API contract.
const (
	// PermissionAdminAll short-circuits every check when present.
	PermissionAdminAll = "admin-all"

	PermissionCategoryManage = "category-manage"
	PermissionItemManage     = "item-manage"
	PermissionOrderManage    = "order-manage"
	PermissionUserManage     = "user-manage"
	PermissionAuditView      = "audit-view"
	PermissionAuditAdmin     = "audit-admin"
	PermissionSequenceManage = "sequence-manage"
)

// Set is an immutable permission set. Entries in the cache share Sets across
// readers and are replaced wholesale on refresh, never mutated in place.
type Set map[string]struct{}

func NewSet(perms []string) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(perm string) bool {
	_, ok := s[perm]
	return ok
}

// PermissionStore is the authoritative role/permission source.
type PermissionStore interface {
	// PermissionsFor resolves the actor's permission names via its role.
	// An actor with no role resolves to an empty slice, not an error.
	PermissionsFor(ctx context.Context, actorID string) ([]string, error)
}

// sweepEveryNMisses triggers the opportunistic cleanup of expired entries.
// Count-triggered and synchronous so the cache needs no background task;
// expired entries are already treated as absent on read.
const sweepEveryNMisses = 16

type entry struct {
	perms  Set
	expiry time.Time
}

type Service struct {
	store PermissionStore
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	misses  int
}

func NewService(store PermissionStore, ttl time.Duration) *Service {
	return &Service{
		store:   store,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]entry),
	}
}

// SetClock substitutes the time source for tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

// PermissionsFor returns the actor's permission set, serving from cache while
// the entry is fresh. A store failure propagates; permission checks never
// fail open.
func (s *Service) PermissionsFor(ctx context.Context, actorID string) (Set, error) {
	now := s.clock()

	s.mu.RLock()
	e, ok := s.entries[actorID]
	s.mu.RUnlock()
	if ok && now.Before(e.expiry) {
		return e.perms, nil
	}

	perms, err := s.store.PermissionsFor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("authz: resolve permissions for %s: %w", actorID, err)
	}

	// Role-less actors cache to an explicit empty set so repeated lookups
	// stay cheap too.
	set := NewSet(perms)

	s.mu.Lock()
	s.misses++
	if s.misses%sweepEveryNMisses == 0 {
		s.sweepLocked(now)
	}
	s.entries[actorID] = entry{perms: set, expiry: now.Add(s.ttl)}
	s.mu.Unlock()

	return set, nil
}

// Allowed reports whether the actor holds perm or the admin-all permission.
func (s *Service) Allowed(ctx context.Context, actorID, perm string) (bool, error) {
	set, err := s.PermissionsFor(ctx, actorID)
	if err != nil {
		return false, err
	}
	if set.Has(PermissionAdminAll) {
		return true, nil
	}
	return set.Has(perm), nil
}

// InvalidateAll drops every cached entry. Call it whenever any role's
// permission assignments change; recomputing per-actor on next check is
// cheap, tracking fine-grained dependencies is not.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Len reports the number of cached entries, expired or not. For tests and
// metrics only.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Service) sweepLocked(now time.Time) {
	for id, e := range s.entries {
		if !now.Before(e.expiry) {
			delete(s.entries, id)
		}
	}
}
