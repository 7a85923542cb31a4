package service

import (
	"context"
	"fmt"

	"github.com/fjod/fruitables/internal/domain"
)

const featuredFruitCount = 3

type CatalogService struct {
	products ProductStore
}

func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) Filter(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Product(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// Shop returns the filtered products split by category, the per-name fruit
// stock of the filtered fruits, and a featured block taken from the whole catalog.
func (s *CatalogService) Shop(ctx context.Context, f domain.ProductFilter) (*domain.ShopListing, error) {
	filtered, err := s.Filter(ctx, f)
	if err != nil {
		return nil, err
	}

	all, err := s.products.ListProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	listing := &domain.ShopListing{
		Products:       filtered,
		Fruits:         byCategory(filtered, domain.CategoryFruits),
		Vegetables:     byCategory(filtered, domain.CategoryVegetables),
		FeaturedFruits: byCategory(all, domain.CategoryFruits),
		Filter:         f,
	}
	listing.FruitStock = domain.AggregateStock(listing.Fruits)

	if len(listing.FeaturedFruits) > featuredFruitCount {
		listing.FeaturedFruits = listing.FeaturedFruits[:featuredFruitCount]
	}
	if veg := byCategory(all, domain.CategoryVegetables); len(veg) > 0 {
		listing.FeaturedVegetable = &veg[0]
	}
	return listing, nil
}

func byCategory(products []domain.Product, c domain.Category) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}
