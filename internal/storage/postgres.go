package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres stores slots in the product_slots table created by the migrations
// in migrations/.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	if p.db == nil {
		return nil, errors.New("postgres slot: db is nil")
	}

	var value []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT value
		FROM product_slots
		WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres slot: load %q: %w", key, err)
	}

	return value, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	if p.db == nil {
		return errors.New("postgres slot: db is nil")
	}

	// jsonb parameters go over the wire as text.
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO product_slots (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("postgres slot: save %q: %w", key, err)
	}

	return nil
}
