package test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartPostgres runs a migrated Postgres container for the duration of the
// test and returns its connection string.
func StartPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("shiptrack"),
		postgres.WithUsername("shiptrack"),
		postgres.WithPassword("shiptrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	terminateOnCleanup(t, container)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := applyMigrations(connStr); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return connStr
}

// StartKafka runs a single-node Kafka container and returns its brokers.
func StartKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("shiptrack-test"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	terminateOnCleanup(t, container)

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}
	if len(brokers) == 0 {
		t.Fatal("kafka container reported no brokers")
	}

	return brokers
}

func terminateOnCleanup(t *testing.T, container testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
}

func applyMigrations(connStr string) error {
	m, err := migrate.New(migrationsURL(), connStr)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// migrationsURL points at the repository's migrations directory regardless of
// the working directory tests run from.
func migrationsURL() string {
	_, thisFile, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(thisFile))
	return "file://" + filepath.Join(root, "migrations")
}

// CountSlotRows reports how many keys the product_slots table holds.
func CountSlotRows(ctx context.Context, connStr string) (int, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product_slots").Scan(&n); err != nil {
		return 0, fmt.Errorf("count product slots: %w", err)
	}
	return n, nil
}
