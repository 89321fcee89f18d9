package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/versioned"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (id, number, customer_name, status, total_minor, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Number, o.CustomerName, o.Status, o.TotalMinor, o.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := s.db.QueryRowContext(ctx, `
		SELECT id, number, customer_name, status, total_minor, last_modified
		FROM orders WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&o.ID, &o.Number, &o.CustomerName, &o.Status, &o.TotalMinor, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return Order{}, apperr.ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, customer_name, status, total_minor, last_modified
		FROM orders WHERE deleted_at IS NULL
		ORDER BY number DESC`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerName, &o.Status, &o.TotalMinor, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, expected time.Time, p OrderPatch, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "orders", id), `
		UPDATE orders
		SET customer_name = $1, total_minor = $2, last_modified = $3
		WHERE id = $4 AND last_modified = $5 AND deleted_at IS NULL`,
		p.CustomerName, p.TotalMinor, stamp, id, expected,
	)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, expected time.Time, status string, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "orders", id), `
		UPDATE orders
		SET status = $1, last_modified = $2
		WHERE id = $3 AND last_modified = $4 AND deleted_at IS NULL`,
		status, stamp, id, expected,
	)
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id string, expected, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "orders", id), `
		UPDATE orders
		SET deleted_at = $1, last_modified = $1
		WHERE id = $2 AND last_modified = $3 AND deleted_at IS NULL`,
		stamp, id, expected,
	)
}
