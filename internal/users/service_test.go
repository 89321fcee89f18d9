package users

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
	"backoffice-platform/internal/authz"
	"backoffice-platform/internal/invalidation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type cacheSpy struct{ flushes int }

func (c *cacheSpy) InvalidateAll() { c.flushes++ }

type fixture struct {
	store *MemoryStore
	cache *cacheSpy
	repo  *audit.MemoryRepo
	rec   *audit.Recorder
	inval *invalidation.Memory
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: NewMemoryStore(),
		cache: &cacheSpy{},
		repo:  audit.NewMemoryRepo(),
		inval: &invalidation.Memory{},
	}
	f.store.AddRole(Role{ID: "r-admin", Name: "Admin"})
	f.store.AddRole(Role{ID: "r-clerk", Name: "Clerk", Permissions: []string{"order-manage"}})
	f.rec = audit.NewRecorder(f.repo, discardLogger(), 16)
	n := 0
	f.svc = NewService(f.store, f.cache, f.rec, f.inval, func() string {
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
	return auth.WithIdentity(context.Background(), "admin-1", "Root")
}

func mustCreate(t *testing.T, f *fixture) User {
	t.Helper()
	u, err := f.svc.Create(actorCtx(), UserPatch{Name: "Priya", Email: "priya@example.com", RoleID: "r-clerk", Secret: "s3cret"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestAssignRole_FlushesPermissionCache(t *testing.T) {
	f := newFixture(t)
	u := mustCreate(t, f)

	got, err := f.svc.AssignRole(actorCtx(), u.ID, u.UpdatedAt, "r-admin")
	if err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if got.RoleID != "r-admin" {
		t.Fatalf("role = %q", got.RoleID)
	}
	if f.cache.flushes != 1 {
		t.Fatalf("expected 1 cache flush, got %d", f.cache.flushes)
	}
}

func TestAssignRole_UnknownRoleLeavesCacheAlone(t *testing.T) {
	f := newFixture(t)
	u := mustCreate(t, f)

	_, err := f.svc.AssignRole(actorCtx(), u.ID, u.UpdatedAt, "r-ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.cache.flushes != 0 {
		t.Fatalf("failed assignment flushed the cache")
	}
}

func TestSetRolePermissions_FlushesAndAuditsRole(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx()

	r, err := f.svc.SetRolePermissions(ctx, "r-clerk", []string{"order-manage", "item-manage"})
	if err != nil {
		t.Fatalf("set role permissions: %v", err)
	}
	if len(r.Permissions) != 2 || r.Permissions[0] != "item-manage" {
		t.Fatalf("permissions = %v", r.Permissions)
	}
	if f.cache.flushes != 1 {
		t.Fatalf("expected 1 cache flush, got %d", f.cache.flushes)
	}

	var upd *audit.Entry
	for _, e := range f.drained() {
		if e.Resource == audit.ResourceRole {
			e := e
			upd = &e
		}
	}
	if upd == nil {
		t.Fatalf("expected a role audit entry")
	}
	want := `[{"field":"permissions","from":"order-manage","to":"item-manage,order-manage"}]`
	if string(upd.Changes) != want {
		t.Fatalf("changes = %s, want %s", upd.Changes, want)
	}
}

// Revoking through a real cache: a cached grant disappears on the next
// check after the role edit, without waiting out the TTL.
func TestRoleEdit_RevokesCachedGrantImmediately(t *testing.T) {
	permStore := authz.NewMemoryStore()
	permStore.Grant("u1", "order-manage")
	cache := authz.NewService(permStore, time.Hour)

	ok, err := cache.Allowed(context.Background(), "u1", "order-manage")
	if err != nil || !ok {
		t.Fatalf("expected cached grant, ok=%v err=%v", ok, err)
	}

	f := newFixture(t)
	svc := NewService(f.store, cache, f.rec, f.inval, func() string { return "x" })
	if _, err := svc.SetRolePermissions(actorCtx(), "r-clerk", nil); err != nil {
		t.Fatalf("set role permissions: %v", err)
	}

	permStore.Grant("u1") // store now returns no perms
	ok, err = cache.Allowed(context.Background(), "u1", "order-manage")
	if err != nil {
		t.Fatalf("allowed: %v", err)
	}
	if ok {
		t.Fatalf("revoked grant still honored after role edit")
	}
}

func TestDelete_CarriesNameAndFlushes(t *testing.T) {
	f := newFixture(t)
	u := mustCreate(t, f)

	if err := f.svc.Delete(actorCtx(), u.ID, u.UpdatedAt); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.cache.flushes != 1 {
		t.Fatalf("expected 1 cache flush, got %d", f.cache.flushes)
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
	if string(del.Metadata) != `{"name":"Priya"}` {
		t.Fatalf("metadata = %s", del.Metadata)
	}
}

func TestUpdate_StaleTokenConflicts(t *testing.T) {
	f := newFixture(t)
	u := mustCreate(t, f)
	ctx := actorCtx()

	shared := u.UpdatedAt
	if _, err := f.svc.Update(ctx, u.ID, shared, UserPatch{Name: "Priya N", Email: u.Email, RoleID: u.RoleID}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := f.svc.Update(ctx, u.ID, shared, UserPatch{Name: "P. Nair", Email: u.Email, RoleID: u.RoleID})
	if !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestAuthenticate_RecordsLoginKeyedByUser(t *testing.T) {
	f := newFixture(t)
	u := mustCreate(t, f)

	got, err := f.svc.Authenticate(context.Background(), "priya@example.com", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("authenticated as %q, want %q", got.ID, u.ID)
	}

	var login *audit.Entry
	for _, e := range f.drained() {
		if e.Action == audit.ActionLogin {
			e := e
			login = &e
		}
	}
	if login == nil {
		t.Fatalf("expected a login entry")
	}
	if login.ActorID != u.ID || login.Resource != audit.ResourceAuth {
		t.Fatalf("unexpected login entry: %+v", login)
	}
}

func TestAuthenticate_BadSecretDenied(t *testing.T) {
	f := newFixture(t)
	mustCreate(t, f)

	_, err := f.svc.Authenticate(context.Background(), "priya@example.com", "wrong")
	if !errors.Is(err, apperr.ErrAuthorizationDenied) {
		t.Fatalf("expected authorization denied, got %v", err)
	}

	for _, e := range f.drained() {
		if e.Action == audit.ActionLogin {
			t.Fatalf("failed login recorded an entry")
		}
	}
}
