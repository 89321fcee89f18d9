package sequence

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresCounterStore keeps counters in the sequence_counters table.
type PostgresCounterStore struct {
	db *sql.DB
}

func NewPostgresCounterStore(db *sql.DB) *PostgresCounterStore {
	return &PostgresCounterStore{db: db}
}

// Increment is a single statement: the upsert creates the counter on first
// use and the RETURNING clause reads the post-increment value, so concurrent
// callers can never observe or reuse the same number.
func (s *PostgresCounterStore) Increment(ctx context.Context, kind, periodKey string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sequence_counters (kind, period_key, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, period_key)
		DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value`,
		kind, periodKey,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter (%s, %s): %w", kind, periodKey, err)
	}
	return value, nil
}

// PostgresPatternStore keeps configured patterns in sequence_patterns.
type PostgresPatternStore struct {
	db *sql.DB
}

func NewPostgresPatternStore(db *sql.DB) *PostgresPatternStore {
	return &PostgresPatternStore{db: db}
}

func (s *PostgresPatternStore) Get(ctx context.Context, kind string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT pattern FROM sequence_patterns WHERE kind = $1`, kind,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pattern for %s: %w", kind, err)
	}
	return raw, nil
}

func (s *PostgresPatternStore) Set(ctx context.Context, kind, raw string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sequence_patterns (kind, pattern, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (kind)
		DO UPDATE SET pattern = EXCLUDED.pattern, updated_at = now()`,
		kind, raw,
	)
	if err != nil {
		return fmt.Errorf("set pattern for %s: %w", kind, err)
	}
	return nil
}
