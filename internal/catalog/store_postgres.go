package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
	"backoffice-platform/internal/versioned"
)

// PostgresStore persists catalog entities. All conditional writes share the
// versioned helper: predicate on id + version token + not soft-deleted,
// two-step disambiguation on a zero-row result.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

/* ===================== CATEGORIES ===================== */

func (s *PostgresStore) CreateCategory(ctx context.Context, c Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, code, name, sort_order, last_modified)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Code, c.Name, c.SortOrder, c.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, sort_order, last_modified
		FROM categories WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&c.ID, &c.Code, &c.Name, &c.SortOrder, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return Category{}, apperr.ErrNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, sort_order, last_modified
		FROM categories WHERE deleted_at IS NULL
		ORDER BY sort_order, code`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.SortOrder, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, id string, expected time.Time, p CategoryPatch, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "categories", id), `
		UPDATE categories
		SET code = $1, name = $2, sort_order = $3, last_modified = $4
		WHERE id = $5 AND last_modified = $6 AND deleted_at IS NULL`,
		p.Code, p.Name, p.SortOrder, stamp, id, expected,
	)
}

func (s *PostgresStore) SoftDeleteCategory(ctx context.Context, id string, expected, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "categories", id), `
		UPDATE categories
		SET deleted_at = $1, last_modified = $1
		WHERE id = $2 AND last_modified = $3 AND deleted_at IS NULL`,
		stamp, id, expected,
	)
}

func (s *PostgresStore) LiveItemCount(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM items
		WHERE category_id = $1 AND deleted_at IS NULL`, categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count items in category: %w", err)
	}
	return n, nil
}

/* ===================== ITEMS ===================== */

func (s *PostgresStore) CreateItem(ctx context.Context, i Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, sku, name, category_id, price_minor, available, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.SKU, i.Name, i.CategoryID, i.PriceMinor, i.Available, i.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (Item, error) {
	var i Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, name, category_id, price_minor, available, last_modified
		FROM items WHERE id = $1 AND deleted_at IS NULL`, id,
	).Scan(&i.ID, &i.SKU, &i.Name, &i.CategoryID, &i.PriceMinor, &i.Available, &i.UpdatedAt)
	if err == sql.ErrNoRows {
		return Item{}, apperr.ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return i, nil
}

func (s *PostgresStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, name, category_id, price_minor, available, last_modified
		FROM items WHERE deleted_at IS NULL
		ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.SKU, &i.Name, &i.CategoryID, &i.PriceMinor, &i.Available, &i.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateItem(ctx context.Context, id string, expected time.Time, p ItemPatch, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "items", id), `
		UPDATE items
		SET sku = $1, name = $2, category_id = $3, price_minor = $4, available = $5, last_modified = $6
		WHERE id = $7 AND last_modified = $8 AND deleted_at IS NULL`,
		p.SKU, p.Name, p.CategoryID, p.PriceMinor, p.Available, stamp, id, expected,
	)
}

func (s *PostgresStore) SoftDeleteItem(ctx context.Context, id string, expected, stamp time.Time) error {
	return versioned.Exec(ctx, s.db, versioned.ExistsByID(s.db, "items", id), `
		UPDATE items
		SET deleted_at = $1, last_modified = $1
		WHERE id = $2 AND last_modified = $3 AND deleted_at IS NULL`,
		stamp, id, expected,
	)
}
