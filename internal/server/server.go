// Package server runs the instrumented HTTP servers of the shiptrack services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

const (
	defaultTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	name   string
	http   *http.Server
	logger *slog.Logger
}

// New wraps mux with otelhttp, naming spans after the matched route.
func New(name, port string, mux http.Handler, logger *slog.Logger) *Server {
	return &Server{
		name:   name,
		logger: logger,
		http: &http.Server{
			Addr:         ":" + port,
			Handler:      otelhttp.NewHandler(mux, name, otelhttp.WithSpanNameFormatter(telemetry.SpanName)),
			ReadTimeout:  defaultTimeout,
			WriteTimeout: defaultTimeout,
		},
	}
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context, attrs ...any) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	s.logger.Info("starting "+s.name+" service", append([]any{"addr", ln.Addr().String()}, attrs...)...)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s server: %w", s.name, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "service", s.name)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s: %w", s.name, err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", s.name, err)
	}
	return nil
}

// NewClient returns an HTTP client whose requests carry trace context.
func NewClient() *http.Client {
	return &http.Client{
		Timeout:   defaultTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
