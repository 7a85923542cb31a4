package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/logger"
	"github.com/fjod/fruitables/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type CatalogMock struct {
	products   []domain.Product
	lastFilter domain.ProductFilter
	err        error
}

func (c *CatalogMock) Filter(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	c.lastFilter = f
	if c.err != nil {
		return nil, c.err
	}
	return c.products, nil
}

func (c *CatalogMock) Product(_ context.Context, id string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, p := range c.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *CatalogMock) Shop(_ context.Context, f domain.ProductFilter) (*domain.ShopListing, error) {
	c.lastFilter = f
	if c.err != nil {
		return nil, c.err
	}
	return &domain.ShopListing{Products: c.products, Filter: f}, nil
}

type CartMock struct {
	m       sync.Mutex
	added   []string
	removed []string
	cleared bool
	view    *domain.CartView
	err     error
}

func (c *CartMock) AddOrIncrement(_ context.Context, userID int64, productID string) (*domain.CartItem, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.added = append(c.added, productID)
	return &domain.CartItem{UserID: userID, ProductID: productID, Quantity: int64(len(c.added))}, nil
}

func (c *CartMock) Remove(_ context.Context, _ int64, productID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return c.err
	}
	c.removed = append(c.removed, productID)
	return nil
}

func (c *CartMock) ListWithTotals(_ context.Context, userID int64) (*domain.CartView, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.view != nil {
		return c.view, nil
	}
	return domain.BuildCartView(userID, nil, domain.DefaultShippingCost), nil
}

func (c *CartMock) Clear(context.Context, int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return c.err
	}
	c.cleared = true
	return nil
}

type CheckoutMock struct {
	userID *int64
	form   domain.CheckoutForm
	err    error
}

func (c *CheckoutMock) Submit(_ context.Context, userID *int64, form domain.CheckoutForm) (*domain.CheckoutRecord, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.userID, c.form = userID, form
	return &domain.CheckoutRecord{UserID: userID, CheckoutForm: form}, nil
}

func (c *CheckoutMock) Get(_ context.Context, userID int64, id string) (*domain.CheckoutRecord, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.userID == nil || *c.userID != userID || id != "c-1" {
		return nil, fmt.Errorf("checkout %q: %w", id, domain.ErrNotFound)
	}
	return &domain.CheckoutRecord{UserID: c.userID, CheckoutForm: c.form}, nil
}

type ContactMock struct {
	err error
}

func (c *ContactMock) Submit(_ context.Context, msg domain.ContactMessage) (*domain.ContactMessage, error) {
	if c.err != nil {
		return nil, c.err
	}
	msg.ID = "1"
	return &msg, nil
}

type ReviewMock struct {
	userID    int64
	lastLimit int
	err       error
}

func (m *ReviewMock) Submit(_ context.Context, userID int64, rv domain.Review) (*domain.Review, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.userID = userID
	rv.ID, rv.UserID = 1, userID
	return &rv, nil
}

func (m *ReviewMock) List(_ context.Context, limit int) ([]domain.Review, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Review{{ID: 1, UserID: m.userID, Username: "alice", Review: "Fresh", Rating: 5}}, nil
}

// AccountMock logs in "alice" with password "secret" as user 1.
type AccountMock struct {
	store *session.RedisStore
	err   error
}

func (a *AccountMock) Register(_ context.Context, form domain.RegistrationForm) (*domain.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &domain.User{ID: 1, Username: form.Username, PasswordHash: "hash"}, nil
}

func (a *AccountMock) Login(ctx context.Context, sess *session.Session, creds domain.Credentials) (*domain.User, *session.Session, error) {
	if creds.Username != "alice" || creds.Password != "secret" {
		return nil, nil, domain.NewValidationError("invalid username or password")
	}
	fresh := a.store.New()
	fresh.Login(1, "alice")
	if err := a.store.Save(ctx, fresh); err != nil {
		return nil, nil, err
	}
	if err := a.store.Delete(ctx, sess.ID); err != nil {
		return nil, nil, err
	}
	return &domain.User{ID: 1, Username: "alice"}, fresh, nil
}

func (a *AccountMock) Logout(ctx context.Context, sess *session.Session) error {
	return a.store.Delete(ctx, sess.ID)
}

func (a *AccountMock) Forgot(context.Context, *session.Session, string) error { return a.err }

func (a *AccountMock) VerifyOTP(_ context.Context, _ *session.Session, code string) error {
	if code != "1234" {
		return domain.NewValidationError("invalid otp")
	}
	return nil
}

func (a *AccountMock) Reset(context.Context, *session.Session, domain.PasswordReset) error { return a.err }

type testServer struct {
	handler  http.Handler
	store    *session.RedisStore
	tokens   *session.TokenManager
	catalog  *CatalogMock
	cart     *CartMock
	checkout *CheckoutMock
	contact  *ContactMock
	reviews  *ReviewMock
	accounts *AccountMock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := session.NewRedisStore(client, time.Hour)
	tokens := session.NewTokenManager("0123456789abcdef", time.Hour)
	sessions := NewSessionManager(store, tokens, "fruitables_session", time.Hour, false, logger.Discard())

	ts := &testServer{
		store:  store,
		tokens: tokens,
		catalog: &CatalogMock{products: []domain.Product{
			{ID: "F001", Name: "Apple", Price: 30, Quantity: 10, Category: domain.CategoryFruits},
		}},
		cart:     &CartMock{},
		checkout: &CheckoutMock{},
		contact:  &ContactMock{},
		reviews:  &ReviewMock{},
		accounts: &AccountMock{store: store},
	}
	ts.handler = NewRouter(RouterConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20}, Services{
		Catalog:  ts.catalog,
		Cart:     ts.cart,
		Checkout: ts.checkout,
		Accounts: ts.accounts,
		Contact:  ts.contact,
		Reviews:  ts.reviews,
	}, sessions, logger.Discard())
	return ts
}

// loggedInToken stores a session for userID and returns its bearer token.
func (ts *testServer) loggedInToken(t *testing.T, userID int64) string {
	t.Helper()
	sess := ts.store.New()
	sess.Login(userID, "alice")
	require.NoError(t, ts.store.Save(context.Background(), sess))
	token, err := ts.tokens.Issue(sess.ID)
	require.NoError(t, err)
	return token
}
