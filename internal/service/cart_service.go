package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fjod/fruitables/internal/cache"
	"github.com/fjod/fruitables/internal/domain"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	products ProductStore
	repo     CartStore
	cache    cache.CartCache
	shipping int64
	log      *slog.Logger
	sfg      singleflight.Group // collapses concurrent cache misses per user
}

func NewCartService(products ProductStore, repo CartStore, cache cache.CartCache, shipping int64, log *slog.Logger) *CartService {
	return &CartService{
		products: products,
		repo:     repo,
		cache:    cache,
		shipping: shipping,
		log:      log,
	}
}

func (s *CartService) AddOrIncrement(ctx context.Context, userID int64, productID string) (*domain.CartItem, error) {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	item, err := s.repo.Increment(ctx, userID, productID)
	if err != nil {
		s.log.ErrorContext(ctx, "repo increment error", "user_id", userID, "product_id", productID, "error", err)
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.invalidateCache(ctx, userID)
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID int64, productID string) error {
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}

	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// ListWithTotals serves the cart view from cache when it can. The version is
// read before the store so a view built from lines older than a concurrent
// mutation is never cached, and callers arriving after a mutation never join a
// load that started before it.
func (s *CartService) ListWithTotals(ctx context.Context, userID int64) (*domain.CartView, error) {
	key := strconv.FormatInt(userID, 10)
	version, verr := s.cache.Version(ctx, userID)
	if verr != nil {
		s.log.WarnContext(ctx, "cache version error", "user_id", userID, "error", verr)
	} else {
		key += ":" + strconv.FormatInt(version, 10)
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		view, err := s.cache.Get(ctx, userID)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get error", "user_id", userID, "error", err)
		}

		lines, err := s.repo.Lines(ctx, userID)
		if err != nil {
			return nil, err
		}
		view = domain.BuildCartView(userID, lines, s.shipping)

		if verr != nil {
			return view, nil
		}
		switch err := s.cache.SetIfVersion(ctx, userID, view, version); {
		case errors.Is(err, cache.ErrCacheStale):
			s.log.DebugContext(ctx, "cart changed during read, not cached", "user_id", userID)
		case err != nil:
			s.log.WarnContext(ctx, "cache set error", "user_id", userID, "error", err)
		}
		return view, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}

	return v.(*domain.CartView), nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	n, err := s.repo.Clear(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.log.DebugContext(ctx, "cart cleared", "user_id", userID, "removed", n)

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) invalidateCache(ctx context.Context, userID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "cache invalidate error", "user_id", userID, "error", err)
	}
}
