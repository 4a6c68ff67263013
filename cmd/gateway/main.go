package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/shiptrack/internal/config"
	"github.com/joao-fontenele/shiptrack/internal/gateway"
	"github.com/joao-fontenele/shiptrack/internal/server"
	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	productsURL := config.Get("PRODUCTS_SERVICE_URL", "")
	if productsURL == "" {
		return errors.New("PRODUCTS_SERVICE_URL is required")
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", config.Get("SERVICE_VERSION", "1.0.0"))
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	proxy := gateway.NewServiceProxy(productsURL, server.NewClient())

	mux := http.NewServeMux()
	gateway.NewHandler(proxy, logger).Register(mux)

	return server.New("gateway", config.Get("PORT", "8080"), mux, logger).Run(ctx, "products_url", productsURL)
}
