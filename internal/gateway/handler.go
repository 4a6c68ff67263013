package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

const apiPrefix = "/api"

type Handler struct {
	productsProxy *ServiceProxy
	logger        *slog.Logger
}

func NewHandler(productsProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		productsProxy: productsProxy,
		logger:        logger,
	}
}

// Register mounts the public API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("POST /api/products", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("GET /api/products/summary", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("GET /api/products/{id}", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("PATCH /api/products/{id}", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("DELETE /api/products/{id}", telemetry.WithHTTPRoute(h.HandleProducts))
	mux.HandleFunc("GET /health", telemetry.WithHTTPRoute(h.HandleHealth))
}

// HandleProducts forwards /api/products... to the products service with the
// /api prefix removed.
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, apiPrefix)
	h.proxyRequest(w, r, h.productsProxy, path)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "query", r.URL.RawQuery, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
