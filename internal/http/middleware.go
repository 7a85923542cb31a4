package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/fruitables/internal/session"
)

// SessionStore is the session persistence the middleware needs.
type SessionStore interface {
	session.Store
	New() *session.Session
}

type SessionManager struct {
	store      SessionStore
	tokens     *session.TokenManager
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *slog.Logger
}

func NewSessionManager(store SessionStore, tokens *session.TokenManager, cookieName string, ttl time.Duration, secure bool, log *slog.Logger) *SessionManager {
	return &SessionManager{
		store:      store,
		tokens:     tokens,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		log:        log,
	}
}

// Middleware loads the caller's session, or starts a new one and hands its
// token back in a cookie. New sessions are persisted by whoever first writes them.
func (m *SessionManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)
		if sess == nil {
			sess = m.store.New()
			if err := m.setCookie(w, sess); err != nil {
				m.log.ErrorContext(r.Context(), "failed to issue session token", "error", err)
				respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
	})
}

func (m *SessionManager) load(r *http.Request) *session.Session {
	token := tokenFromRequest(r, m.cookieName)
	if token == "" {
		return nil
	}
	sid, err := m.tokens.Parse(token)
	if err != nil {
		return nil
	}
	sess, err := m.store.Get(r.Context(), sid)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			m.log.WarnContext(r.Context(), "failed to load session", "error", err)
		}
		return nil
	}
	return sess
}

// Token returns a signed token for sess, for clients that use the Authorization header.
func (m *SessionManager) Token(sess *session.Session) (string, error) {
	return m.tokens.Issue(sess.ID)
}

func (m *SessionManager) setCookie(w http.ResponseWriter, sess *session.Session) error {
	token, err := m.tokens.Issue(sess.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *SessionManager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireUser rejects requests whose session has no logged-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentSession(ctx context.Context) *session.Session {
	return session.FromContext(ctx)
}

func currentUserID(ctx context.Context) int64 {
	if s := session.FromContext(ctx); s != nil {
		return s.UserID
	}
	return 0
}
