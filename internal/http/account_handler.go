package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/session"
)

type AccountService interface {
	Register(ctx context.Context, form domain.RegistrationForm) (*domain.User, error)
	Login(ctx context.Context, sess *session.Session, creds domain.Credentials) (*domain.User, *session.Session, error)
	Logout(ctx context.Context, sess *session.Session) error
	Forgot(ctx context.Context, sess *session.Session, email string) error
	VerifyOTP(ctx context.Context, sess *session.Session, code string) error
	Reset(ctx context.Context, sess *session.Session, reset domain.PasswordReset) error
}

type AccountHandler struct {
	accounts     AccountService
	sessions     *SessionManager
	timeout      time.Duration
	maxBodyBytes int64
	log          *slog.Logger
}

func NewAccountHandler(accounts AccountService, sessions *SessionManager, timeout time.Duration, maxBodyBytes int64, log *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		sessions:     sessions,
		timeout:      timeout,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}
}

type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form domain.RegistrationForm
	if !decodeJSON(w, r, h.maxBodyBytes, &form) {
		return
	}

	u, err := h.accounts.Register(ctx, form)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, u)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var creds domain.Credentials
	if !decodeJSON(w, r, h.maxBodyBytes, &creds) {
		return
	}

	u, sess, err := h.accounts.Login(ctx, currentSession(r.Context()), creds)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	if err := h.sessions.setCookie(w, sess); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	token, err := h.sessions.Token(sess)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{User: u, Token: token})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.Logout(ctx, currentSession(r.Context())); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	h.sessions.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req forgotRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	if err := h.accounts.Forgot(ctx, currentSession(r.Context()), req.Email); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "otp sent"})
}

func (h *AccountHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req otpRequest
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	if err := h.accounts.VerifyOTP(ctx, currentSession(r.Context()), req.OTP); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "otp verified"})
}

func (h *AccountHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.PasswordReset
	if !decodeJSON(w, r, h.maxBodyBytes, &req) {
		return
	}

	if err := h.accounts.Reset(ctx, currentSession(r.Context()), req); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
