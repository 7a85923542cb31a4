package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Category int

const (
	CategoryAll        Category = 0
	CategoryVegetables Category = 1
	CategoryFruits     Category = 2
)

func (c Category) String() string {
	switch c {
	case CategoryAll:
		return "all"
	case CategoryVegetables:
		return "vegetables"
	case CategoryFruits:
		return "fruits"
	default:
		return "unknown"
	}
}

func (c Category) Valid() bool {
	return c >= CategoryAll && c <= CategoryFruits
}

// ParseCategory accepts a name ("fruits") or its numeric code ("2").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return CategoryAll, nil
	case "vegetables", "vegetable":
		return CategoryVegetables, nil
	case "fruits", "fruit":
		return CategoryFruits, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil && Category(n).Valid() {
		return Category(n), nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Quantity int64    `json:"quantity"`
	Category Category `json:"category"`
	Details  string   `json:"details"`
	ImageURL string   `json:"image_url"`
}

// StockCount is the total stock of all products sharing a name.
type StockCount struct {
	Name       string `json:"name"`
	TotalStock int64  `json:"total_stock"`
}

// AggregateStock sums quantities per product name, sorted by name.
func AggregateStock(products []Product) []StockCount {
	totals := make(map[string]int64)
	for _, p := range products {
		totals[p.Name] += p.Quantity
	}
	out := make([]StockCount, 0, len(totals))
	for name, total := range totals {
		out = append(out, StockCount{Name: name, TotalStock: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ShopListing is what the shop page needs in one read.
type ShopListing struct {
	Products          []Product     `json:"products"`
	Fruits            []Product     `json:"fruits"`
	Vegetables        []Product     `json:"vegetables"`
	FruitStock        []StockCount  `json:"fruit_stock"`
	FeaturedFruits    []Product     `json:"featured_fruits"`
	FeaturedVegetable *Product      `json:"featured_vegetable,omitempty"`
	Filter            ProductFilter `json:"filter"`
}
