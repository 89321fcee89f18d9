package users

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/audit"
	"backoffice-platform/internal/auth"
	"backoffice-platform/internal/invalidation"
	"backoffice-platform/internal/versioned"
)

// PermissionCache is the slice of the authorization cache this service
// flushes after role-affecting writes.
type PermissionCache interface {
	InvalidateAll()
}

// Service runs user and role mutations through the pipeline. Role
// assignment and role-permission edits flush the permission cache right
// after the write commits, so no actor keeps acting on a revoked grant for
// longer than the in-flight requests already past their check.
type Service struct {
	store Store
	perms PermissionCache
	rec   *audit.Recorder
	inval invalidation.Invalidator
	clock func() time.Time
	newID func() string
}

func NewService(store Store, perms PermissionCache, rec *audit.Recorder, inval invalidation.Invalidator, newID func() string) *Service {
	return &Service{
		store: store,
		perms: perms,
		rec:   rec,
		inval: inval,
		clock: time.Now,
		newID: newID,
	}
}

// SetClock substitutes the time source for tests.
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

func (s *Service) Create(ctx context.Context, p UserPatch) (User, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return User{}, apperr.ErrAuthorizationDenied
	}
	if err := validatePatch(p); err != nil {
		return User{}, err
	}
	if p.Secret == "" {
		return User{}, apperr.Validationf("secret is required")
	}

	u := User{
		ID:        s.newID(),
		Name:      p.Name,
		Email:     p.Email,
		RoleID:    p.RoleID,
		UpdatedAt: versioned.Stamp(s.clock()),
	}
	if err := s.store.Create(ctx, u, p.Secret); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.rec.Record(actor, audit.ActionCreate, audit.ResourceUser, u.ID, nil,
		map[string]string{"name": u.Name})
	s.inval.Invalidate(ctx, "user")
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, expected time.Time, p UserPatch) (User, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return User{}, apperr.ErrAuthorizationDenied
	}
	if err := validatePatch(p); err != nil {
		return User{}, err
	}

	old, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.Update(ctx, id, expected, p, stamp); err != nil {
		return User{}, err
	}

	updated := old
	updated.Name = p.Name
	updated.Email = p.Email
	updated.RoleID = p.RoleID
	updated.UpdatedAt = stamp

	if old.RoleID != updated.RoleID {
		s.perms.InvalidateAll()
	}

	changes := audit.Diff(old.auditState(), updated.auditState(), userAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceUser, updated.ID, changes, nil)
	s.inval.Invalidate(ctx, "user")
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

	s.perms.InvalidateAll()
	s.rec.Record(actor, audit.ActionDelete, audit.ResourceUser, old.ID, nil,
		map[string]string{"name": old.Name})
	s.inval.Invalidate(ctx, "user")
	return nil
}

func (s *Service) AssignRole(ctx context.Context, id string, expected time.Time, roleID string) (User, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return User{}, apperr.ErrAuthorizationDenied
	}
	if roleID == "" {
		return User{}, apperr.Validationf("role id is required")
	}
	if _, err := s.store.GetRole(ctx, roleID); err != nil {
		return User{}, err
	}

	old, err := s.store.Get(ctx, id)
	if err != nil {
		return User{}, err
	}

	stamp := versioned.Stamp(s.clock())
	if err := s.store.AssignRole(ctx, id, expected, roleID, stamp); err != nil {
		return User{}, err
	}

	s.perms.InvalidateAll()

	updated := old
	updated.RoleID = roleID
	updated.UpdatedAt = stamp

	changes := audit.Diff(old.auditState(), updated.auditState(), userAuditFields)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceUser, updated.ID, changes, nil)
	s.inval.Invalidate(ctx, "user")
	return updated, nil
}

func (s *Service) SetRolePermissions(ctx context.Context, roleID string, perms []string) (Role, error) {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return Role{}, apperr.ErrAuthorizationDenied
	}

	old, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, err
	}

	next := append([]string(nil), perms...)
	sort.Strings(next)
	if err := s.store.SetRolePermissions(ctx, roleID, next); err != nil {
		return Role{}, fmt.Errorf("set role permissions: %w", err)
	}

	s.perms.InvalidateAll()

	before := append([]string(nil), old.Permissions...)
	sort.Strings(before)
	changes := audit.Diff(
		map[string]any{"permissions": strings.Join(before, ",")},
		map[string]any{"permissions": strings.Join(next, ",")},
		[]string{"permissions"},
	)
	s.rec.Record(actor, audit.ActionUpdate, audit.ResourceRole, roleID, changes, nil)
	s.inval.Invalidate(ctx, "role")

	updated := old
	updated.Permissions = next
	return updated, nil
}

// Authenticate verifies credentials and records the login. It is the one
// mutation path reachable without an authenticated actor, so the audit
// entry is keyed by the user who just proved who they are.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (User, error) {
	if email == "" || secret == "" {
		return User{}, apperr.Validationf("email and secret are required")
	}
	u, err := s.store.Authenticate(ctx, email, secret)
	if err != nil {
		return User{}, err
	}

	s.rec.Record(u.ID, audit.ActionLogin, audit.ResourceAuth, u.ID, nil,
		map[string]string{"email": u.Email})
	return u, nil
}

// RecordLogout notes the actor ending their session.
func (s *Service) RecordLogout(ctx context.Context) error {
	actor, err := auth.UserID(ctx)
	if err != nil {
		return apperr.ErrAuthorizationDenied
	}
	s.rec.Record(actor, audit.ActionLogout, audit.ResourceAuth, actor, nil, nil)
	return nil
}

func validatePatch(p UserPatch) error {
	if p.Name == "" {
		return apperr.Validationf("user name is required")
	}
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return apperr.Validationf("a valid email is required")
	}
	if p.RoleID == "" {
		return apperr.Validationf("role id is required")
	}
	return nil
}
