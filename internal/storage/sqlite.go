package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLite stores slots in an embedded database. InitSQLiteSchema must run
// before first use.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// InitSQLiteSchema creates the product_slots table if needed.
func InitSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init sqlite schema: db is nil")
	}

	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS product_slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("init sqlite schema: create product_slots: %w", err)
	}

	return nil
}

func (s *SQLite) Load(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, errors.New("sqlite slot: db is nil")
	}

	var value string
	err := s.db.QueryRowContext(ctx, `
	SELECT value
	FROM product_slots
	WHERE key = ?;
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sqlite slot: load %q: %w", key, err)
	}

	return []byte(value), nil
}

func (s *SQLite) Save(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return errors.New("sqlite slot: db is nil")
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO product_slots (
		key,
		value,
		updated_at
	)
	VALUES (?, ?, CURRENT_TIMESTAMP);
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("sqlite slot: save %q: %w", key, err)
	}

	return nil
}
