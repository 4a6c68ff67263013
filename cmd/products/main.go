package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/shiptrack/internal/config"
	"github.com/joao-fontenele/shiptrack/internal/messaging"
	"github.com/joao-fontenele/shiptrack/internal/products"
	"github.com/joao-fontenele/shiptrack/internal/server"
	"github.com/joao-fontenele/shiptrack/internal/storage"
	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("products service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadProducts()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "products", cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("products", cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	if err := telemetry.StartRuntimeMetrics(); err != nil {
		logger.Warn("failed to start runtime metrics", "error", err)
	}

	slot, closeSlot, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StorageDriver,
		Path:        cfg.StoragePath,
		PostgresURL: cfg.PostgresURL,
	})
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer func() { _ = closeSlot() }()

	store := products.NewStore(slot, logger, products.WithStorageKey(cfg.StorageKey))
	if err := loadProducts(ctx, store, cfg, logger); err != nil {
		return err
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.ProductsTopic)
		defer func() { _ = producer.Close() }()
		store.Subscribe(products.PublishEvents(producer, logger))
		logger.Info("publishing product events", "topic", cfg.ProductsTopic, "brokers", cfg.KafkaBrokers)
	}

	mux := http.NewServeMux()
	products.NewHandler(store, cfg.DefaultPageSize, logger).Register(mux)
	mux.Handle("GET /metrics", metricsHandler)

	return server.New("products", cfg.Port, mux, logger).
		Run(ctx, "storage", cfg.StorageDriver, "products", store.Count())
}

// loadProducts hydrates the store and seeds it when it comes up empty.
// A corrupt slot is logged and left for the next mutation to overwrite.
func loadProducts(ctx context.Context, store *products.Store, cfg config.Products, logger *slog.Logger) error {
	if err := store.Hydrate(ctx); err != nil {
		if !errors.Is(err, products.ErrCorruptState) {
			return fmt.Errorf("hydrate products: %w", err)
		}
		logger.Warn("persisted products are corrupt, starting empty", "error", err, "key", cfg.StorageKey)
	}

	if cfg.SeedPath == "" {
		return nil
	}
	n, err := products.SeedFromJSON(ctx, store, cfg.SeedPath)
	if err != nil {
		return fmt.Errorf("seed products from %s: %w", cfg.SeedPath, err)
	}
	if n > 0 {
		logger.Info("products seeded", "count", n, "path", cfg.SeedPath)
	}
	return nil
}
