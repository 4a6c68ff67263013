package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/shiptrack/internal/config"
	"github.com/joao-fontenele/shiptrack/internal/notifier"
	"github.com/joao-fontenele/shiptrack/internal/server"
	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "notifier", config.Get("SERVICE_VERSION", "1.0.0"))
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	mux := http.NewServeMux()
	notifier.NewHandler(logger).Register(mux)

	return server.New("notifier", config.Get("PORT", "8084"), mux, logger).Run(ctx)
}
