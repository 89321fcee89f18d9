package authz

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore resolves permissions from the users -> roles ->
// role_permissions join.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) PermissionsFor(ctx context.Context, actorID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		JOIN role_permissions rp ON rp.role_id = r.id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE u.id = $1 AND u.deleted_at IS NULL`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
