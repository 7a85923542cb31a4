package service

import (
	"context"

	"github.com/fjod/fruitables/internal/domain"
	"github.com/fjod/fruitables/internal/session"
	"github.com/google/uuid"
)

type ProductStore interface {
	ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartStore interface {
	Increment(ctx context.Context, userID int64, productID string) (*domain.CartItem, error)
	Remove(ctx context.Context, userID int64, productID string) error
	Lines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

type CheckoutStore interface {
	CreateWithEvent(ctx context.Context, rec *domain.CheckoutRecord, eventType string, payload []byte) error
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.CheckoutRecord, error)
}

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	ByID(ctx context.Context, id int64) (*domain.User, error)
	ByUsername(ctx context.Context, username string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	SetOTP(ctx context.Context, id int64, otp string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type ContactStore interface {
	Create(ctx context.Context, m *domain.ContactMessage) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *domain.Review) error
	List(ctx context.Context, limit int) ([]domain.Review, error)
}

// SessionStore persists sessions and mints new anonymous ones.
type SessionStore interface {
	session.Store
	New() *session.Session
}
