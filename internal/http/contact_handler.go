package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/fruitables/internal/domain"
)

type ContactService interface {
	Submit(ctx context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error)
}

type ContactHandler struct {
	contact      ContactService
	timeout      time.Duration
	maxBodyBytes int64
	log          *slog.Logger
}

func NewContactHandler(contact ContactService, timeout time.Duration, maxBodyBytes int64, log *slog.Logger) *ContactHandler {
	return &ContactHandler{contact: contact, timeout: timeout, maxBodyBytes: maxBodyBytes, log: log}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var msg domain.ContactMessage
	if !decodeJSON(w, r, h.maxBodyBytes, &msg) {
		return
	}

	saved, err := h.contact.Submit(ctx, msg)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}
