package domain

import "strings"

// ProductFilter holds optional predicates; a nil field places no constraint.
type ProductFilter struct {
	Query    *string   `json:"q,omitempty"`
	MinPrice *int64    `json:"min_price,omitempty"`
	MaxPrice *int64    `json:"max_price,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// HasCategory reports whether the filter restricts by category. ALL does not.
func (f ProductFilter) HasCategory() bool {
	return f.Category != nil && *f.Category != CategoryAll
}

func (f ProductFilter) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return FieldError("min_price", "must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return FieldError("max_price", "must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return FieldError("min_price", "must not exceed max_price")
	}
	if f.Category != nil && !f.Category.Valid() {
		return FieldError("category", "unknown category")
	}
	return nil
}

// Matches applies the filter in memory. Names are compared after Unicode lower-casing.
func (f ProductFilter) Matches(p Product) bool {
	if f.Query != nil && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(*f.Query)) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.HasCategory() && p.Category != *f.Category {
		return false
	}
	return true
}
