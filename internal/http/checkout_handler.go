package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CheckoutService interface {
	Submit(ctx context.Context, userID *int64, form domain.CheckoutForm) (*domain.CheckoutRecord, error)
	Get(ctx context.Context, userID int64, id string) (*domain.CheckoutRecord, error)
}

type CheckoutHandler struct {
	checkout     CheckoutService
	timeout      time.Duration
	maxBodyBytes int64
	log          *slog.Logger
}

func NewCheckoutHandler(checkout CheckoutService, timeout time.Duration, maxBodyBytes int64, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, timeout: timeout, maxBodyBytes: maxBodyBytes, log: log}
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form domain.CheckoutForm
	if !decodeJSON(w, r, h.maxBodyBytes, &form) {
		return
	}

	var userID *int64
	if id := currentUserID(r.Context()); id != 0 {
		userID = &id
	}

	rec, err := h.checkout.Submit(ctx, userID, form)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	rec, err := h.checkout.Get(ctx, currentUserID(r.Context()), chi.URLParam(r, "checkout_id"))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}
