package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/brain-product-parser/internal/database"
	"github.com/maltedev/brain-product-parser/internal/export"
)

const defaultListLimit = 100

// Store is the read side of the product database.
type Store interface {
	ListProducts(ctx context.Context, limit int) ([]*database.StoredProduct, error)
	GetProduct(ctx context.Context, id int64) (*database.StoredProduct, error)
}

type Handlers struct {
	store  Store
	logger *slog.Logger
}

func NewHandlers(store Store, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:  store,
		logger: logger.With("component", "api"),
	}
}

type ListResponse struct {
	Products []*database.StoredProduct `json:"products"`
	Count    int                       `json:"count"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts handles GET /products?limit=N.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	products, err := h.store.ListProducts(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*database.StoredProduct{}
	}

	h.respondJSON(w, http.StatusOK, ListResponse{Products: products, Count: len(products)})
}

// GetProduct handles GET /products/{productID}.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if errors.Is(err, database.ErrProductNotFound) {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		h.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// ExportCSV handles GET /products/export.csv.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context(), 0)
	if err != nil {
		h.logger.Error("failed to list products for export", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	if err := export.WriteCSV(w, products); err != nil {
		h.logger.Error("failed to write csv", "error", err)
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
