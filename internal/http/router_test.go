package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/logger"
	"github.com/fjod/fruitables/internal/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStoreRoutesRequireLogin(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/products"},
		{http.MethodGet, "/api/v1/shop"},
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/cart/items/F001"},
		{http.MethodPost, "/api/v1/checkout"},
		{http.MethodPost, "/api/v1/contact"},
		{http.MethodGet, "/api/v1/reviews"},
		{http.MethodPost, "/api/v1/reviews"},
		{http.MethodGet, "/api/v1/checkout/c-1"},
	} {
		rec := ts.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/cart", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenCartWithCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid username or password", decodeError(t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/login", "", map[string]string{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var login LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	assert.Equal(t, "alice", login.User.Username)
	assert.NotEmpty(t, login.Token)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	last := cookies[len(cookies)-1]
	assert.Equal(t, "fruitables_session", last.Name)
	assert.True(t, last.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(last)
	cartRec := httptest.NewRecorder()
	ts.handler.ServeHTTP(cartRec, req)
	require.Equal(t, http.StatusOK, cartRec.Code)

	var view domain.CartView
	require.NoError(t, json.NewDecoder(cartRec.Body).Decode(&view))
	assert.Equal(t, int64(1), view.UserID)
	assert.Equal(t, int64(30), view.Total)

	// bearer token works the same way
	rec = ts.do(t, http.MethodGet, "/api/v1/cart", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_PreLoginTokenDoesNotAuthenticate(t *testing.T) {
	ts := newTestServer(t)

	pre := ts.store.New()
	require.NoError(t, ts.store.Save(context.Background(), pre))
	preToken, err := ts.tokens.Issue(pre.ID)
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/login", preToken, map[string]string{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	assert.NotEqual(t, preToken, login.Token)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", preToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", login.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/register", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")

	ts.accounts.err = domain.NewValidationError("username already exists")
	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, "username already exists", resp.Error)
}

func TestVerifyOTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/otp", "", map[string]string{"otp": "1234 "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/otp", "", map[string]string{"otp": "1234"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestForgot_MailUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.accounts.err = fmt.Errorf("failed to send otp: %w", mail.ErrMailUnavailable)

	rec := ts.do(t, http.MethodPost, "/api/v1/accounts/forgot", "", map[string]string{"email": "a@b.c"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "mail_unavailable", decodeError(t, rec).Code)
}

func TestProducts_FilterParsing(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)

	rec := ts.do(t, http.MethodGet, "/api/v1/products?q=apple&min_price=0&max_price=100&category=fruits", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f := ts.catalog.lastFilter
	require.NotNil(t, f.Query)
	assert.Equal(t, "apple", *f.Query)
	require.NotNil(t, f.MinPrice)
	assert.Equal(t, int64(0), *f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, int64(100), *f.MaxPrice)
	require.NotNil(t, f.Category)
	assert.Equal(t, domain.CategoryFruits, *f.Category)

	rec = ts.do(t, http.MethodGet, "/api/v1/products?min_price=&q=", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ProductFilter{}, ts.catalog.lastFilter)

	rec = ts.do(t, http.MethodGet, "/api/v1/shop?max_price=cheap", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "max_price")
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr []string
	}{
		{"empty", "", nil},
		{"numeric category", "category=1", nil},
		{"bad numbers", "min_price=1.5&max_price=x", []string{"min_price", "max_price"}},
		{"bad category", "category=meat", []string{"category"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			_, err = parseFilter(q)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			for _, field := range tt.wantErr {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestProductDetail(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)

	rec := ts.do(t, http.MethodGet, "/api/v1/products/F001", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "Apple", p.Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/products/NOPE", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestCartRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)

	rec := ts.do(t, http.MethodPost, "/api/v1/cart/items/F001", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var item domain.CartItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&item))
	assert.Equal(t, "F001", item.ProductID)

	rec = ts.do(t, http.MethodDelete, "/api/v1/cart/items/F001", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"F001"}, ts.cart.removed)

	rec = ts.do(t, http.MethodDelete, "/api/v1/cart", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, ts.cart.cleared)

	ts.cart.err = fmt.Errorf("failed to remove from cart: %w", domain.ErrNotFound)
	rec = ts.do(t, http.MethodDelete, "/api/v1/cart/items/ZZZ", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 42)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{
		"fullname": "Alice", "email": "alice@example.com", "paypal": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, ts.checkout.userID)
	assert.Equal(t, int64(42), *ts.checkout.userID)
	assert.True(t, ts.checkout.form.Paypal)

	ts.checkout.err = &domain.ValidationError{Reason: "invalid checkout form", Fields: map[string]string{"fullname": "this field is required"}}
	rec = ts.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_failed", resp.Code)
	assert.Equal(t, "this field is required", resp.Fields["fullname"])
}

func TestGetCheckout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 42)

	rec := ts.do(t, http.MethodPost, "/api/v1/checkout", token, map[string]interface{}{
		"fullname": "Alice", "email": "alice@example.com", "paypal": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/checkout/c-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.CheckoutRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Alice", got.Fullname)

	other := ts.loggedInToken(t, 7)
	rec = ts.do(t, http.MethodGet, "/api/v1/checkout/c-1", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/checkout/c-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvalidJSONBody(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Code)
}

func TestContact_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 1)
	ts.contact.err = fmt.Errorf("repeat: %w", domain.ErrDuplicate)

	rec := ts.do(t, http.MethodPost, "/api/v1/contact", token, map[string]string{"yourname": "Alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", decodeError(t, rec).Code)
}

func TestReviews(t *testing.T) {
	ts := newTestServer(t)
	token := ts.loggedInToken(t, 5)

	rec := ts.do(t, http.MethodPost, "/api/v1/reviews", token, map[string]interface{}{
		"email": "alice@example.com", "review": "Fresh", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(5), ts.reviews.userID)

	rec = ts.do(t, http.MethodGet, "/api/v1/reviews?limit=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ts.reviews.lastLimit)
	var body struct {
		Reviews []domain.Review `json:"reviews"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Reviews, 1)
	assert.Equal(t, 5, body.Reviews[0].Rating)

	rec = ts.do(t, http.MethodGet, "/api/v1/reviews?limit=many", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "limit")

	ts.reviews.err = &domain.ValidationError{Reason: "invalid review", Fields: map[string]string{"rating": "ensure this value is less than or equal to 5"}}
	rec = ts.do(t, http.MethodPost, "/api/v1/reviews", token, map[string]interface{}{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "rating")
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.FieldError("email", "bad"), http.StatusBadRequest, "validation_failed"},
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("x: %w", domain.ErrDuplicate), http.StatusConflict, "already_exists"},
		{&domain.StoreError{Op: "q", Err: errors.New("conn reset")}, http.StatusServiceUnavailable, "store_unavailable"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			handleServiceError(rec, req, logger.Discard(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestStoreErrorDoesNotLeakDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handleServiceError(rec, req, logger.Discard(), &domain.StoreError{Op: "q", Err: errors.New("password=hunter2")})

	assert.NotContains(t, rec.Body.String(), "hunter2")
}
