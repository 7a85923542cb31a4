package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	AddOrIncrement(ctx context.Context, userID int64, productID string) (*domain.CartItem, error)
	Remove(ctx context.Context, userID int64, productID string) error
	ListWithTotals(ctx context.Context, userID int64) (*domain.CartView, error)
	Clear(ctx context.Context, userID int64) error
}

type CartHandler struct {
	cart    CartService
	timeout time.Duration
	log     *slog.Logger
}

func NewCartHandler(cart CartService, timeout time.Duration, log *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, timeout: timeout, log: log}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := currentUserID(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
		return
	}

	view, err := h.cart.ListWithTotals(ctx, userID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := currentUserID(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
		return
	}

	item, err := h.cart.AddOrIncrement(ctx, userID, chi.URLParam(r, "product_id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := currentUserID(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
		return
	}

	if err := h.cart.Remove(ctx, userID, chi.URLParam(r, "product_id")); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := currentUserID(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
		return
	}

	if err := h.cart.Clear(ctx, userID); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
