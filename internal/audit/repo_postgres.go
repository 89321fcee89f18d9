package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostgresRepo persists entries in the append-only audit_entries table.
//
// Storage notes:
// - INSERT-only policy; retention cleanup is the single DELETE path.
// - actor display names live in users; entries reference actors by id only
//   and the join is resolved at read time.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_entries (actor_id, action, resource, resource_id, changes, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ActorID, e.Action, e.Resource, e.ResourceID, nullableJSON(e.Changes), nullableJSON(e.Metadata), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (r *PostgresRepo) Query(ctx context.Context, f Filter) ([]EntryView, int64, error) {
	where, args := buildFilter(f)

	var total int64
	countQ := `SELECT count(*) FROM audit_entries a LEFT JOIN users u ON u.id = a.actor_id` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf(`
		SELECT a.id, a.actor_id, COALESCE(u.name, ''), a.action, a.resource, a.resource_id,
		       COALESCE(a.changes, 'null'::jsonb), COALESCE(a.metadata, 'null'::jsonb), a.created_at
		FROM audit_entries a
		LEFT JOIN users u ON u.id = a.actor_id
		%s
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []EntryView
	for rows.Next() {
		var v EntryView
		var changes, metadata []byte
		if err := rows.Scan(&v.ID, &v.ActorID, &v.ActorName, &v.Action, &v.Resource, &v.ResourceID, &changes, &metadata, &v.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		if decoded, ok := decodeChanges(changes); ok {
			v.Changes = changes
			v.ChangeList = decoded
		}
		if decoded, ok := decodeMetadata(metadata); ok {
			v.Metadata = metadata
			v.MetadataFields = decoded
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

func decodeChanges(b []byte) ([]FieldChange, bool) {
	if len(b) == 0 || string(b) == "null" {
		return nil, false
	}
	var out []FieldChange
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func decodeMetadata(b []byte) (map[string]string, bool) {
	if len(b) == 0 || string(b) == "null" {
		return nil, false
	}
	var out map[string]string
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Resource != "" {
		add("a.resource = $%d", f.Resource)
	}
	if f.ResourceID != "" {
		add("a.resource_id = $%d", f.ResourceID)
	}
	if f.Action != "" {
		add("a.action = $%d", f.Action)
	}
	if f.ActorName != "" {
		add("u.name ILIKE $%d", "%"+f.ActorName+"%")
	}
	if !f.From.IsZero() {
		add("a.created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.created_at <= $%d", f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepo) DeleteOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM audit_entries WHERE resource = $1 AND created_at < $2`,
		kind, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) CountOlderThan(ctx context.Context, kind ResourceKind, cutoff time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM audit_entries WHERE resource = $1 AND created_at < $2`,
		kind, cutoff,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Stats(ctx context.Context) (Stats, error) {
	s := Stats{PerKind: make(map[ResourceKind]int64)}

	var oldest sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*), min(created_at) FROM audit_entries`,
	).Scan(&s.Total, &oldest)
	if err != nil {
		return Stats{}, fmt.Errorf("audit stats: %w", err)
	}
	if oldest.Valid {
		s.OldestAt = oldest.Time
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT resource, count(*) FROM audit_entries GROUP BY resource`,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("audit per-kind stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind ResourceKind
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return Stats{}, fmt.Errorf("scan audit stats: %w", err)
		}
		s.PerKind[kind] = n
	}
	return s, rows.Err()
}
