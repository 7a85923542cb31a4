package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type ReviewService interface {
	Submit(ctx context.Context, userID int64, rv domain.Review) (*domain.Review, error)
	List(ctx context.Context, limit int) ([]domain.Review, error)
}

type ReviewHandler struct {
	reviews      ReviewService
	timeout      time.Duration
	maxBodyBytes int64
	log          *slog.Logger
}

func NewReviewHandler(reviews ReviewService, timeout time.Duration, maxBodyBytes int64, log *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, timeout: timeout, maxBodyBytes: maxBodyBytes, log: log}
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var rv domain.Review
	if !decodeJSON(w, r, h.maxBodyBytes, &rv) {
		return
	}

	saved, err := h.reviews.Submit(ctx, currentUserID(r.Context()), rv)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			handleServiceError(w, r, h.log, domain.FieldError("limit", "enter a whole number"))
			return
		}
		limit = n
	}

	reviews, err := h.reviews.List(ctx, limit)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}
