package notifier

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

// Notification is a message addressed to one recipient, usually a phone
// number.
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	delay  func() time.Duration
	logger *slog.Logger
}

type HandlerOption func(*Handler)

// WithDelay replaces the simulated delivery latency.
func WithDelay(fn func() time.Duration) HandlerOption {
	return func(h *Handler) {
		h.delay = fn
	}
}

func NewHandler(logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		delay: func() time.Duration {
			return time.Duration(50+rand.IntN(151)) * time.Millisecond
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the notifier routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /send", telemetry.WithHTTPRoute(h.HandleSend))
	mux.HandleFunc("GET /health", telemetry.WithHTTPRoute(h.HandleHealth))
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req Notification
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" {
		h.writeError(w, http.StatusBadRequest, "to and subject are required")
		return
	}

	select {
	case <-time.After(h.delay()):
	case <-r.Context().Done():
		h.logger.Warn("notification aborted", "to", req.To, "error", r.Context().Err())
		return
	}

	h.logger.Info("notification sent", "to", req.To, "subject", req.Subject)
	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
