package cache

import (
	"context"
	"errors"

	"github.com/fjod/fruitables/internal/domain"
)

// CartCache holds rendered cart views keyed by user. Every cart mutation bumps a
// per-user version; a view is only stored if the version it was read under is
// still current.
type CartCache interface {
	Get(ctx context.Context, userID int64) (*domain.CartView, error)
	Version(ctx context.Context, userID int64) (int64, error)
	SetIfVersion(ctx context.Context, userID int64, view *domain.CartView, version int64) error
	Invalidate(ctx context.Context, userID int64) error
}

var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrCacheStale = errors.New("cart changed since it was read")
)
