package products

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/shiptrack/internal/domain"
	"github.com/joao-fontenele/shiptrack/internal/telemetry"
)

const maxPageSize = 100

type Handler struct {
	store           *Store
	defaultPageSize int
	logger          *slog.Logger
}

func NewHandler(store *Store, defaultPageSize int, logger *slog.Logger) *Handler {
	if defaultPageSize < 1 || defaultPageSize > maxPageSize {
		defaultPageSize = 10
	}
	return &Handler{
		store:           store,
		defaultPageSize: defaultPageSize,
		logger:          logger,
	}
}

// Register mounts the product routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", telemetry.WithHTTPRoute(h.HandleHealth))
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("GET /products/summary", telemetry.WithHTTPRoute(h.HandleSummary))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(h.HandleGet))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(h.HandleCreate))
	mux.HandleFunc("PATCH /products/{id}", telemetry.WithHTTPRoute(h.HandleUpdate))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(h.HandleDelete))
}

type listResponse struct {
	Products []domain.Product `json:"products"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Total    int              `json:"total"`
}

type summaryResponse struct {
	domain.StatusCounts
	Total int `json:"total"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := h.queryInt(w, r, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := h.queryInt(w, r, "page_size", h.defaultPageSize)
	if !ok {
		return
	}
	if pageSize > maxPageSize {
		h.writeError(w, http.StatusBadRequest, "page_size must be between 1 and 100")
		return
	}

	products := h.store.FetchPage(page, pageSize)

	h.logger.Info("products listed", "page", page, "page_size", pageSize, "count", len(products))
	h.writeJSON(w, http.StatusOK, listResponse{
		Products: products,
		Page:     page,
		PageSize: pageSize,
		Total:    h.store.Count(),
	})
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	counts := h.store.CountByStatus()
	h.writeJSON(w, http.StatusOK, summaryResponse{StatusCounts: counts, Total: counts.Total()})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, ok := h.store.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.NewProduct
	if !h.decode(w, r, &req) {
		return
	}

	if problems := validateNewProduct(req); len(problems) > 0 {
		h.writeValidationError(w, problems)
		return
	}

	product, err := h.store.Create(r.Context(), req)
	if !h.applied(w, err, "create", product.ID) {
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "status", product.Status)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var patch domain.ProductPatch
	if !h.decode(w, r, &patch) {
		return
	}
	if patch.Empty() {
		h.writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	if problems := validatePatch(patch); len(problems) > 0 {
		h.writeValidationError(w, problems)
		return
	}

	product, err := h.store.Update(r.Context(), id, patch)
	if !h.applied(w, err, "update", id) {
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product updated", "product_id", product.ID, "status", product.Status)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	found, err := h.store.Delete(r.Context(), id)
	if !h.applied(w, err, "delete", id) {
		return
	}

	if !found {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// applied reports whether a mutation took effect in memory. A persistence
// failure does not undo the change, so it is logged and the request still
// succeeds; a client retry would otherwise repeat it.
func (h *Handler) applied(w http.ResponseWriter, err error, operation, id string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrPersistenceFailed) {
		h.logger.Warn("product change not persisted", "error", err, "operation", operation, "product_id", id)
		return true
	}
	h.logger.Error("failed to "+operation+" product", "error", err, "product_id", id)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
	return false
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	defer func() { _ = r.Body.Close() }()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func (h *Handler) queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		h.writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return v, true
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

func (h *Handler) writeValidationError(w http.ResponseWriter, problems []string) {
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":   "validation failed",
		"details": problems,
	})
}
