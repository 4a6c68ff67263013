package products

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joao-fontenele/shiptrack/internal/domain"
	"github.com/joao-fontenele/shiptrack/internal/storage"
)

const validBody = `{
	"title": "Standing desk",
	"recipient": "Maria",
	"recipientPhone": "+351900000000",
	"description": "oak top",
	"origin": "Lisbon",
	"destination": "Porto",
	"eta": 1767225600,
	"packages": [{"name": "frame", "weight": 20, "weightUnit": "kg", "quantity": 1, "quantityUnit": "boxes"}]
}`

func newTestMux(t *testing.T, store *Store) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(store, 5, discardLogger()).Register(mux)
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func seedStore(t *testing.T, store *Store, statuses ...domain.ProductStatus) []domain.Product {
	t.Helper()
	var out []domain.Product
	for i, status := range statuses {
		p, err := store.Create(context.Background(), newProduct("product "+string(rune('A'+i)), status))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func TestHandler_HandleList(t *testing.T) {
	store := NewStore(nil, discardLogger())
	created := seedStore(t, store,
		domain.ProductStatusPending, domain.ProductStatusPending, domain.ProductStatusPending,
		domain.ProductStatusPending, domain.ProductStatusDelivered, domain.ProductStatusDelivered,
		domain.ProductStatusCancelled,
	)
	mux := newTestMux(t, store)

	t.Run("uses default page size", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/products", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}

		resp := decodeBody[listResponse](t, rec)
		if resp.Page != 1 || resp.PageSize != 5 || resp.Total != 7 {
			t.Errorf("unexpected envelope: page=%d page_size=%d total=%d", resp.Page, resp.PageSize, resp.Total)
		}
		if diff := cmp.Diff(created[:5], resp.Products); diff != "" {
			t.Errorf("page 1 (-want +got):\n%s", diff)
		}
	})

	t.Run("returns the requested page", func(t *testing.T) {
		resp := decodeBody[listResponse](t, serve(mux, http.MethodGet, "/products?page=2&page_size=5", ""))
		if diff := cmp.Diff(created[5:], resp.Products); diff != "" {
			t.Errorf("page 2 (-want +got):\n%s", diff)
		}
	})

	t.Run("returns an empty array past the end", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/products?page=9", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"products":[]`) {
			t.Errorf("expected empty products array, got %s", rec.Body.String())
		}
	})

	for _, query := range []string{"page=0", "page=-1", "page=abc", "page_size=0", "page_size=101"} {
		t.Run("rejects "+query, func(t *testing.T) {
			rec := serve(mux, http.MethodGet, "/products?"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandler_HandleSummary(t *testing.T) {
	store := NewStore(nil, discardLogger())
	seedStore(t, store,
		domain.ProductStatusPending, domain.ProductStatusDelivered,
		domain.ProductStatusDelivered, domain.ProductStatusCancelled,
	)

	rec := serve(newTestMux(t, store), http.MethodGet, "/products/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decodeBody[map[string]int](t, rec)
	want := map[string]int{"pending": 1, "delivered": 2, "cancelled": 1, "total": 4}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("summary (-want +got):\n%s", diff)
	}
}

func TestHandler_HandleGet(t *testing.T) {
	store := NewStore(nil, discardLogger())
	created := seedStore(t, store, domain.ProductStatusPending)
	mux := newTestMux(t, store)

	t.Run("returns product", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/products/"+created[0].ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if diff := cmp.Diff(created[0], decodeBody[domain.Product](t, rec)); diff != "" {
			t.Errorf("product (-want +got):\n%s", diff)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		rec := serve(mux, http.MethodGet, "/products/missing", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
		if resp := decodeBody[map[string]string](t, rec); resp["error"] != "product not found" {
			t.Errorf("expected 'product not found', got %s", resp["error"])
		}
	})
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates pending product", func(t *testing.T) {
		slot := storage.NewMemory()
		store := NewStore(slot, discardLogger())
		mux := newTestMux(t, store)

		rec := serve(mux, http.MethodPost, "/products", validBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		p := decodeBody[domain.Product](t, rec)
		if p.ID == "" {
			t.Error("expected generated id")
		}
		if p.Status != domain.ProductStatusPending {
			t.Errorf("expected Pending, got %s", p.Status)
		}
		if len(p.Packages) != 1 || p.Packages[0].Name != "frame" {
			t.Errorf("unexpected packages: %+v", p.Packages)
		}
		if store.Count() != 1 {
			t.Errorf("expected 1 product in store, got %d", store.Count())
		}
		if _, err := slot.Load(context.Background(), DefaultStorageKey); err != nil {
			t.Errorf("expected collection persisted: %v", err)
		}
	})

	t.Run("keeps explicit status", func(t *testing.T) {
		store := NewStore(nil, discardLogger())
		body := strings.Replace(validBody, `"eta"`, `"status": "Delivered", "eta"`, 1)

		rec := serve(newTestMux(t, store), http.MethodPost, "/products", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if p := decodeBody[domain.Product](t, rec); p.Status != domain.ProductStatusDelivered {
			t.Errorf("expected Delivered, got %s", p.Status)
		}
	})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"unknown field", `{"title":"x","colour":"red"}`, http.StatusBadRequest},
		{"trailing data", validBody + `{}`, http.StatusBadRequest},
		{"missing fields", `{"title":"x"}`, http.StatusUnprocessableEntity},
		{"bad status", strings.Replace(validBody, `"eta"`, `"status": "Lost", "eta"`, 1), http.StatusUnprocessableEntity},
		{"no packages", strings.Replace(validBody, `[{"name": "frame", "weight": 20, "weightUnit": "kg", "quantity": 1, "quantityUnit": "boxes"}]`, `[]`, 1), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			store := NewStore(nil, discardLogger())
			rec := serve(newTestMux(t, store), http.MethodPost, "/products", tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if store.Count() != 0 {
				t.Errorf("expected nothing created, got %d", store.Count())
			}
		})
	}

	t.Run("reports validation details", func(t *testing.T) {
		rec := serve(newTestMux(t, NewStore(nil, discardLogger())), http.MethodPost, "/products", `{"title":"x"}`)

		var resp struct {
			Error   string   `json:"error"`
			Details []string `json:"details"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error != "validation failed" {
			t.Errorf("expected 'validation failed', got %s", resp.Error)
		}
		if len(resp.Details) == 0 {
			t.Error("expected validation details")
		}
	})

	t.Run("answers 201 when only persistence fails", func(t *testing.T) {
		store := NewStore(&failingSlot{saveErr: errors.New("disk full")}, discardLogger())
		rec := serve(newTestMux(t, store), http.MethodPost, "/products", validBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "disk full") {
			t.Errorf("response leaked internal error: %s", rec.Body.String())
		}

		created := decodeBody[domain.Product](t, rec)
		if _, ok := store.Get(created.ID); !ok || store.Count() != 1 {
			t.Errorf("expected exactly the returned product in the store, count %d", store.Count())
		}
	})
}

func TestHandler_HandleUpdate(t *testing.T) {
	store := NewStore(nil, discardLogger())
	created := seedStore(t, store, domain.ProductStatusPending)
	mux := newTestMux(t, store)

	t.Run("merges provided fields", func(t *testing.T) {
		rec := serve(mux, http.MethodPatch, "/products/"+created[0].ID, `{"status":"Delivered","destination":"Braga"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		want := created[0]
		want.Status = domain.ProductStatusDelivered
		want.Destination = "Braga"
		if diff := cmp.Diff(want, decodeBody[domain.Product](t, rec)); diff != "" {
			t.Errorf("updated product (-want +got):\n%s", diff)
		}
		if counts := store.CountByStatus(); counts.Delivered != 1 || counts.Pending != 0 {
			t.Errorf("unexpected counts after update: %+v", counts)
		}
	})

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"missing product", "/products/missing", `{"title":"x"}`, http.StatusNotFound},
		{"empty patch", "/products/" + created[0].ID, `{}`, http.StatusBadRequest},
		{"invalid json", "/products/" + created[0].ID, `nope`, http.StatusBadRequest},
		{"invalid status", "/products/" + created[0].ID, `{"status":"Lost"}`, http.StatusUnprocessableEntity},
		{"blank title", "/products/" + created[0].ID, `{"title":"  "}`, http.StatusUnprocessableEntity},
		{"empty packages", "/products/" + created[0].ID, `{"packages":[]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPatch, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	store := NewStore(nil, discardLogger())
	created := seedStore(t, store, domain.ProductStatusPending, domain.ProductStatusCancelled)
	mux := newTestMux(t, store)

	rec := serve(mux, http.MethodDelete, "/products/"+created[0].ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 product left, got %d", store.Count())
	}

	rec = serve(mux, http.MethodDelete, "/products/"+created[0].ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", rec.Code)
	}
}

func TestHandler_HandleHealth(t *testing.T) {
	rec := serve(newTestMux(t, NewStore(nil, discardLogger())), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp := decodeBody[map[string]string](t, rec); resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestHandler_PersistenceFailureKeepsChange(t *testing.T) {
	slot := &failingSlot{}
	store := NewStore(slot, discardLogger())
	created := seedStore(t, store, domain.ProductStatusPending, domain.ProductStatusPending)
	slot.saveErr = errors.New("disk full")
	mux := newTestMux(t, store)

	rec := serve(mux, http.MethodPatch, "/products/"+created[0].ID, `{"status":"Cancelled"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[domain.Product](t, rec); got.Status != domain.ProductStatusCancelled {
		t.Errorf("PATCH: expected Cancelled, got %s", got.Status)
	}

	rec = serve(mux, http.MethodDelete, "/products/"+created[1].ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE: expected status 204, got %d: %s", rec.Code, rec.Body.String())
	}

	want := domain.StatusCounts{Cancelled: 1}
	if diff := cmp.Diff(want, store.CountByStatus()); diff != "" {
		t.Errorf("counts after unpersisted changes (-want +got):\n%s", diff)
	}
	if slot.saves != 4 {
		t.Errorf("expected 4 save attempts, got %d", slot.saves)
	}
}

func TestHandler_HandleListHugePage(t *testing.T) {
	store := NewStore(nil, discardLogger())
	seedStore(t, store, domain.ProductStatusPending, domain.ProductStatusDelivered, domain.ProductStatusCancelled)
	mux := newTestMux(t, store)

	for _, target := range []string{
		"/products?page=" + strconv.Itoa(math.MaxInt/50) + "&page_size=100",
		"/products?page=" + strconv.Itoa(math.MaxInt) + "&page_size=2",
	} {
		rec := serve(mux, http.MethodGet, target, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status 200, got %d", target, rec.Code)
		}
		resp := decodeBody[listResponse](t, rec)
		if len(resp.Products) != 0 || resp.Total != 3 {
			t.Errorf("GET %s: got %d products, total %d; want 0 and 3", target, len(resp.Products), resp.Total)
		}
	}
}
