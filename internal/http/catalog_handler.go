package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
	Shop(ctx context.Context, f domain.ProductFilter) (*domain.ShopListing, error)
}

type CatalogHandler struct {
	catalog CatalogService
	timeout time.Duration
	log     *slog.Logger
}

func NewCatalogHandler(catalog CatalogService, timeout time.Duration, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout, log: log}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	products, err := h.catalog.Filter(ctx, f)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"products": products, "filter": f})
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.Product(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) Shop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	listing, err := h.catalog.Shop(ctx, f)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, listing)
}

// parseFilter reads q, min_price, max_price and category. Absent or empty
// parameters stay nil.
func parseFilter(q url.Values) (domain.ProductFilter, error) {
	var (
		f    domain.ProductFilter
		verr = &domain.ValidationError{Reason: "invalid filter", Fields: map[string]string{}}
	)

	if v := strings.TrimSpace(q.Get("q")); v != "" {
		f.Query = &v
	}
	for _, bound := range []struct {
		name string
		dst  **int64
	}{
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
	} {
		v := strings.TrimSpace(q.Get(bound.name))
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			verr.Fields[bound.name] = "must be an integer"
			continue
		}
		*bound.dst = &n
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := domain.ParseCategory(v)
		if err != nil {
			verr.Fields["category"] = "unknown category"
		} else {
			f.Category = &c
		}
	}

	if len(verr.Fields) > 0 {
		return domain.ProductFilter{}, verr
	}
	return f, nil
}
