// Package versioned implements the conditional-write half of the optimistic
// concurrency contract shared by every mutable entity.
//
// An entity's last_modified timestamp is its version token. A write applies
// only when the caller supplies the token it last read; the predicate runs
// atomically in the store, so exactly one of any set of concurrent writers
// can succeed per token value.
package versioned

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice-platform/internal/apperr"
)

// Execer is the slice of *sql.DB / *sql.Tx the helpers need.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Prober reports whether the target row still exists (and is not
// soft-deleted). It is consulted only after a conditional write matched zero
// rows: the store reports a bare row count, so missing and stale-version are
// indistinguishable from the predicate alone.
type Prober func(ctx context.Context) (bool, error)

// Stamp returns the version token for a successful write. Postgres stores
// timestamptz at microsecond precision; truncating here keeps the token
// byte-identical across a write/read round trip.
func Stamp(now time.Time) time.Time {
	return now.UTC().Truncate(time.Microsecond)
}

// TokenFromMicros converts the wire form of a version token (the updatedAt
// unix-microsecond value clients echo back) to the store form.
func TokenFromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// Micros converts a version token to its wire form.
func Micros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// Exec runs a conditional write whose predicate must include the id, the
// expected version and the not-soft-deleted clause. Zero matched rows are
// disambiguated through probe: absent row -> NotFound, present row ->
// VersionConflict (the version must have diverged).
func Exec(ctx context.Context, ex Execer, probe Prober, query string, args ...any) error {
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("conditional write: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("conditional write rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := probe(ctx)
	if err != nil {
		return fmt.Errorf("conditional write probe: %w", err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return apperr.ErrVersionConflict
}

// ExistsByID builds a Prober over the conventional
// `id = $1 AND deleted_at IS NULL` shape.
func ExistsByID(db *sql.DB, table, id string) Prober {
	return func(ctx context.Context) (bool, error) {
		var one int
		q := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 AND deleted_at IS NULL`, table)
		err := db.QueryRowContext(ctx, q, id).Scan(&one)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}
}
