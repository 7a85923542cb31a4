package domain

import "time"

// DefaultShippingCost is charged on every cart, empty ones included.
const DefaultShippingCost int64 = 30

type CartItem struct {
	UserID    int64     `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartLine struct {
	Product   Product `json:"product"`
	Quantity  int64   `json:"quantity"`
	LineTotal int64   `json:"line_total"`
}

type CartView struct {
	UserID   int64      `json:"user_id"`
	Items    []CartLine `json:"items"`
	Subtotal int64      `json:"subtotal"`
	Shipping int64      `json:"shipping"`
	Total    int64      `json:"total"`
}

// BuildCartView computes line totals, subtotal and grand total.
func BuildCartView(userID int64, lines []CartLine, shipping int64) *CartView {
	view := &CartView{
		UserID:   userID,
		Items:    make([]CartLine, 0, len(lines)),
		Shipping: shipping,
	}
	for _, l := range lines {
		l.LineTotal = l.Product.Price * l.Quantity
		view.Subtotal += l.LineTotal
		view.Items = append(view.Items, l)
	}
	view.Total = view.Subtotal + view.Shipping
	return view
}
