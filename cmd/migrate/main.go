package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joao-fontenele/shiptrack/internal/config"
)

const usage = "usage: migrate <up|down|version|force N>"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	flag.Parse()
	if err := run(logger, flag.Args()); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	postgresURL := config.Get("POSTGRES_URL", "")
	if postgresURL == "" {
		return errors.New("POSTGRES_URL is required")
	}
	source := config.Get("MIGRATIONS_PATH", "file://migrations")

	m, err := migrate.New(source, postgresURL)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", source, err)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		return step(logger, m.Up(), "product_slots schema is up to date")
	case "down":
		return step(logger, m.Steps(-1), "rolled back one migration")
	case "version":
		return reportVersion(logger, m)
	case "force":
		if len(args) < 2 {
			return errors.New("usage: migrate force N")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		logger.Info("migration version forced", "version", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usage)
	}
}

// step treats ErrNoChange as success.
func step(logger *slog.Logger, err error, done string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("nothing to migrate")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(done)
	return nil
}

func reportVersion(logger *slog.Logger, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("no migrations applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
