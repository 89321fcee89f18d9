package users

import (
	"context"
	"time"
)

// Store persists users and roles. Authenticate verifies the secret and
// returns the live user on success; a bad email and a bad secret are
// indistinguishable to the caller.
type Store interface {
	Create(ctx context.Context, u User, secret string) error
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, expected time.Time, p UserPatch, stamp time.Time) error
	SoftDelete(ctx context.Context, id string, expected, stamp time.Time) error
	AssignRole(ctx context.Context, id string, expected time.Time, roleID string, stamp time.Time) error

	Authenticate(ctx context.Context, email, secret string) (User, error)

	GetRole(ctx context.Context, roleID string) (Role, error)
	SetRolePermissions(ctx context.Context, roleID string, perms []string) error
}
