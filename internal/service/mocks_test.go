package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fjod/fruitables/internal/cache"
	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/session"
	"github.com/google/uuid"
)

type mockProductStore struct {
	m        sync.RWMutex
	products []domain.Product
	err      error
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{products: []domain.Product{
		{ID: "F001", Name: "Apple", Price: 30, Quantity: 10, Category: domain.CategoryFruits},
		{ID: "F002", Name: "Green Apple", Price: 45, Quantity: 5, Category: domain.CategoryFruits},
		{ID: "F003", Name: "Banana", Price: 20, Quantity: 8, Category: domain.CategoryFruits},
		{ID: "F004", Name: "Apple", Price: 35, Quantity: 4, Category: domain.CategoryFruits},
		{ID: "F005", Name: "Pineapple", Price: 120, Quantity: 3, Category: domain.CategoryFruits},
		{ID: "V001", Name: "Tomato", Price: 15, Quantity: 20, Category: domain.CategoryVegetables},
		{ID: "V002", Name: "Potato", Price: 10, Quantity: 50, Category: domain.CategoryVegetables},
		{ID: "V003", Name: "Broccoli", Price: 600, Quantity: 1, Category: domain.CategoryVegetables},
		{ID: "X001", Name: "Gift Basket", Price: 0, Quantity: 2, Category: domain.CategoryAll},
	}}
}

func (m *mockProductStore) ListProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, 0)
	for _, p := range m.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
}

func (m *mockProductStore) setPrice(id string, price int64) {
	m.m.Lock()
	defer m.m.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Price = price
		}
	}
}

type cartKey struct {
	userID    int64
	productID string
}

type mockCartStore struct {
	m         sync.RWMutex
	products  *mockProductStore
	items     map[cartKey]int64
	order     []cartKey
	linesHits int
	err       error
}

func newMockCartStore(products *mockProductStore) *mockCartStore {
	return &mockCartStore{products: products, items: make(map[cartKey]int64)}
}

func (m *mockCartStore) Increment(_ context.Context, userID int64, productID string) (*domain.CartItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	k := cartKey{userID, productID}
	if _, ok := m.items[k]; !ok {
		m.order = append(m.order, k)
	}
	m.items[k]++
	return &domain.CartItem{UserID: userID, ProductID: productID, Quantity: m.items[k]}, nil
}

func (m *mockCartStore) Remove(_ context.Context, userID int64, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	k := cartKey{userID, productID}
	if _, ok := m.items[k]; !ok {
		return fmt.Errorf("cart item %q: %w", productID, domain.ErrNotFound)
	}
	delete(m.items, k)
	return nil
}

func (m *mockCartStore) Lines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.linesHits++
	if m.err != nil {
		return nil, m.err
	}
	lines := make([]domain.CartLine, 0)
	seen := make(map[cartKey]bool)
	for _, k := range m.order {
		q, ok := m.items[k]
		if !ok || k.userID != userID || seen[k] {
			continue
		}
		seen[k] = true
		p, err := m.products.GetProduct(ctx, k.productID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, domain.CartLine{Product: *p, Quantity: q})
	}
	return lines, nil
}

func (m *mockCartStore) Clear(_ context.Context, userID int64) (int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for k := range m.items {
		if k.userID == userID {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}

func (m *mockCartStore) quantity(userID int64, productID string) int64 {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.items[cartKey{userID, productID}]
}

func (m *mockCartStore) lineReads() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.linesHits
}

type mockCache struct {
	m        sync.RWMutex
	views    map[int64]*domain.CartView
	versions map[int64]int64
	getErr   error
	setErr   error
}

func newMockCache() *mockCache {
	return &mockCache{views: make(map[int64]*domain.CartView), versions: make(map[int64]int64)}
}

func (m *mockCache) Get(_ context.Context, userID int64) (*domain.CartView, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.views[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Version(_ context.Context, userID int64) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.versions[userID], nil
}

func (m *mockCache) SetIfVersion(_ context.Context, userID int64, view *domain.CartView, version int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if m.versions[userID] != version {
		return cache.ErrCacheStale
	}
	m.views[userID] = view
	return nil
}

func (m *mockCache) Invalidate(_ context.Context, userID int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.versions[userID]++
	delete(m.views, userID)
	return nil
}

func (m *mockCache) has(userID int64) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.views[userID]
	return ok
}

type storedCheckout struct {
	rec       *domain.CheckoutRecord
	eventType string
	payload   []byte
}

type mockCheckoutStore struct {
	m      sync.RWMutex
	stored []storedCheckout
	err    error
}

func (m *mockCheckoutStore) CreateWithEvent(_ context.Context, rec *domain.CheckoutRecord, eventType string, payload []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, storedCheckout{rec: rec, eventType: eventType, payload: payload})
	return nil
}

func (m *mockCheckoutStore) GetRecord(_ context.Context, id uuid.UUID) (*domain.CheckoutRecord, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.stored {
		if s.rec.ID == id {
			return s.rec, nil
		}
	}
	return nil, fmt.Errorf("checkout %s: %w", id, domain.ErrNotFound)
}

func (m *mockCheckoutStore) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.stored)
}

type mockUserStore struct {
	m         sync.RWMutex
	users     map[int64]*domain.User
	nextID    int64
	createErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]*domain.User)}
}

func (m *mockUserStore) Create(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrDuplicate)
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserStore) ByID(_ context.Context, id int64) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (m *mockUserStore) ByUsername(_ context.Context, username string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Username == username })
}

func (m *mockUserStore) ByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *mockUserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if u := m.users[id]; match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (m *mockUserStore) SetOTP(_ context.Context, id int64, otp string) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	u.OTP = &otp
	return nil
}

func (m *mockUserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	u.PasswordHash = hash
	u.OTP = nil
	return nil
}

func (m *mockUserStore) count() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.users)
}

type mockContactStore struct {
	m        sync.RWMutex
	messages []domain.ContactMessage
}

func (m *mockContactStore) Create(_ context.Context, msg *domain.ContactMessage) error {
	m.m.Lock()
	defer m.m.Unlock()
	msg.ID = fmt.Sprintf("%d", len(m.messages)+1)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockContactStore) ExistsByName(_ context.Context, name string) (bool, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	for _, msg := range m.messages {
		if msg.YourName == name {
			return true, nil
		}
	}
	return false, nil
}

type mockReviewStore struct {
	m       sync.RWMutex
	reviews []domain.Review
	limit   int
}

func (m *mockReviewStore) Create(_ context.Context, r *domain.Review) error {
	m.m.Lock()
	defer m.m.Unlock()
	r.ID = int64(len(m.reviews) + 1)
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *mockReviewStore) List(_ context.Context, limit int) ([]domain.Review, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.limit = limit
	out := make([]domain.Review, 0, len(m.reviews))
	for i := len(m.reviews) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.reviews[i])
	}
	return out, nil
}

type mockSessionStore struct {
	m        sync.RWMutex
	sessions map[string]session.Session
	minted   int
}

func (m *mockSessionStore) New() *session.Session {
	m.m.Lock()
	defer m.m.Unlock()
	m.minted++
	return &session.Session{ID: fmt.Sprintf("fresh-%d", m.minted)}
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]session.Session)}
}

func (m *mockSessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return &s, nil
}

func (m *mockSessionStore) Save(_ context.Context, s *session.Session) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *mockSessionStore) Delete(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.sessions, id)
	return nil
}

type sentMail struct {
	to, subject, body string
}

type mockMailer struct {
	m    sync.Mutex
	sent []sentMail
	err  error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}
