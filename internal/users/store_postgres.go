package users

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/versioned"
	"backoffice-platform/pkg/utils"
)

// PostgresStore persists users and roles. Secrets are hashed in the
// database with pgcrypto's crypt(), matching on read the same way.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u User, secret string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role_id, secret_hash, last_modified)
		VALUES ($1, $2, $3, $4, crypt($5, gen_salt('bf')), $6)`,
		u.ID, u.Name, u.Email, u.RoleID, secret, u.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role_id, last_modified
		FROM users WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, apperr.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role_id, last_modified
		FROM users WHERE deleted_at IS NULL
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, expected time.Time, p UserPatch, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "users", id), `
		UPDATE users
		SET name = $1, email = $2, role_id = $3, last_modified = $4
		WHERE id = $5 AND last_modified = $6 AND deleted_at IS NULL`,
		p.Name, p.Email, p.RoleID, stamp, id, expected,
	)
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id string, expected, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "users", id), `
		UPDATE users
		SET deleted_at = $1, last_modified = $1
		WHERE id = $2 AND last_modified = $3 AND deleted_at IS NULL`,
		stamp, id, expected,
	)
}

func (s *PostgresStore) AssignRole(ctx context.Context, id string, expected time.Time, roleID string, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "users", id), `
		UPDATE users
		SET role_id = $1, last_modified = $2
		WHERE id = $3 AND last_modified = $4 AND deleted_at IS NULL`,
		roleID, stamp, id, expected,
	)
}

func (s *PostgresStore) Authenticate(ctx context.Context, email, secret string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role_id, last_modified
		FROM users
		WHERE email = $1
		  AND secret_hash = crypt($2, secret_hash)
		  AND deleted_at IS NULL`,
		email, secret,
	).Scan(&u.ID, &u.Name, &u.Email, &u.RoleID, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return User{}, apperr.ErrAuthorizationDenied
	}
	if err != nil {
		return User{}, fmt.Errorf("authenticate: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetRole(ctx context.Context, roleID string) (Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM roles WHERE id = $1`, roleID,
	).Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return Role{}, apperr.ErrNotFound
	}
	if err != nil {
		return Role{}, fmt.Errorf("get role: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return Role{}, fmt.Errorf("get role permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return Role{}, fmt.Errorf("scan permission: %w", err)
		}
		r.Permissions = append(r.Permissions, name)
	}
	return r, rows.Err()
}

// SetRolePermissions swaps the role's grant set in one transaction; unknown
// permission names are created on first use.
func (s *PostgresStore) SetRolePermissions(ctx context.Context, roleID string, perms []string) error {
	return utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return fmt.Errorf("clear role permissions: %w", err)
		}
		for _, name := range perms {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO permissions (name) VALUES ($1)
				ON CONFLICT (name) DO NOTHING`, name); err != nil {
				return fmt.Errorf("ensure permission %q: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT $1, id FROM permissions WHERE name = $2`, roleID, name); err != nil {
				return fmt.Errorf("grant %q: %w", name, err)
			}
		}
		return nil
	})
}
