package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/shiptrack/internal/config"
	"github.com/joao-fontenele/shiptrack/internal/messaging"
	"github.com/joao-fontenele/shiptrack/internal/notifier"
	"github.com/joao-fontenele/shiptrack/internal/server"
	"github.com/joao-fontenele/shiptrack/internal/telemetry"
	"github.com/joao-fontenele/shiptrack/internal/worker"
)

const consumerGroup = "notification-worker"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	brokers := config.GetList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	notifierURL := config.Get("NOTIFIER_SERVICE_URL", "")
	if notifierURL == "" {
		return errors.New("NOTIFIER_SERVICE_URL is required")
	}
	topic := config.Get("PRODUCTS_TOPIC", messaging.ProductEventsTopic)

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "worker", config.Get("SERVICE_VERSION", "1.0.0"))
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	consumer := messaging.NewConsumer(brokers, topic, consumerGroup, logger)
	defer func() { _ = consumer.Close() }()

	handler := worker.NewNotificationHandler(notifier.NewClient(notifierURL, server.NewClient()), logger)

	logger.Info("starting notification worker", "brokers", brokers, "topic", topic, "group", consumerGroup)

	err = consumer.Consume(ctx, handler.Handle)
	if ctx.Err() != nil {
		logger.Info("consumer stopped")
		return nil
	}
	return err
}
