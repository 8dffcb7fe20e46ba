package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresAllocator persists daily counters in PostgreSQL. The increment is a
// single upsert so concurrent callers serialize on the row and never observe
// the same value.
type PostgresAllocator struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed allocator.
func NewPostgres(db *sql.DB) *PostgresAllocator {
	return &PostgresAllocator{db: db}
}

// Schema creates the backing table if it does not exist.
func (a *PostgresAllocator) Schema(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS daily_sequences (
			allocator_key TEXT PRIMARY KEY,
			value         INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create daily_sequences: %w", err)
	}
	return nil
}

func (a *PostgresAllocator) Next(ctx context.Context, region int, district string, day time.Time) (int, error) {
	query := `
		INSERT INTO daily_sequences (allocator_key, value)
		VALUES ($1, 1)
		ON CONFLICT (allocator_key) DO UPDATE SET
			value = daily_sequences.value + 1
		RETURNING value
	`
	var value int
	if err := a.db.QueryRowContext(ctx, query, Key(region, district, day)).Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return value, nil
}
