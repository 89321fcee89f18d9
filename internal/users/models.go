package users

import "time"

// User is an admin-app actor. Secret is accepted on create and login only;
// it is never read back out of the store.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleID    string    `json:"role_id"`
	UpdatedAt time.Time `json:"-"`
}

type UserPatch struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	RoleID string `json:"role_id"`
	Secret string `json:"secret,omitempty"`
}

var userAuditFields = []string{"name", "email", "role_id"}

func (u User) auditState() map[string]any {
	return map[string]any{
		"name":    u.Name,
		"email":   u.Email,
		"role_id": u.RoleID,
	}
}

// Role groups permissions. Editing a role's permission set changes what
// every user holding that role may do, which is why those edits flush the
// whole authorization cache.
type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}
