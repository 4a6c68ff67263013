package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

const (
	DriverNone     = "none"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver      string
	Path        string
	PostgresURL string
}

// Open builds the slot for the configured driver. DriverNone returns a nil
// slot, which turns persistence off. The returned close function is never nil.
func Open(ctx context.Context, opts Options) (Slot, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverNone:
		return nil, noop, nil

	case DriverMemory, "":
		return NewMemory(), noop, nil

	case DriverFile:
		slot, err := NewFile(opts.Path)
		if err != nil {
			return nil, noop, err
		}
		return slot, noop, nil

	case DriverPostgres:
		if strings.TrimSpace(opts.PostgresURL) == "" {
			return nil, noop, fmt.Errorf("open storage: postgres url is required")
		}
		db, err := telemetry.OpenDB("postgres", opts.PostgresURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open storage: open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("open storage: verify postgres connection: %w", err)
		}
		return NewPostgres(db), db.Close, nil

	case DriverSQLite:
		path := opts.Path
		if strings.TrimSpace(path) == "" {
			return nil, noop, fmt.Errorf("open storage: sqlite path is required")
		}
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "products.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, noop, fmt.Errorf("open storage: create dir for %q: %w", path, err)
		}
		db, err := telemetry.OpenDB("sqlite", path)
		if err != nil {
			return nil, noop, fmt.Errorf("open storage: open sqlite database %q: %w", path, err)
		}
		// One writer at a time keeps SQLite from returning SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("open storage: verify sqlite connection to %q: %w", path, err)
		}
		if err := InitSQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("open storage: %w", err)
		}
		return NewSQLite(db), db.Close, nil

	default:
		return nil, noop, fmt.Errorf("open storage: unknown driver %q", opts.Driver)
	}
}
