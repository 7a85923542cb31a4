// Package session keeps per-client state (identity, password-reset progress)
// in Redis and hands the client a signed token naming its session.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

type Session struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	ResetEmail  string    `json:"reset_email,omitempty"`
	OTP         string    `json:"otp,omitempty"`
	OTPVerified bool      `json:"otp_verified,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Login binds the user to the session and drops any reset state.
func (s *Session) Login(userID int64, username string) {
	s.UserID = userID
	s.Username = username
	s.ClearReset()
}

func (s *Session) ClearReset() {
	s.ResetEmail = ""
	s.OTP = ""
	s.OTPVerified = false
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session loaded by the HTTP middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
