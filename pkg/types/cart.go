package types

import (
	"github.com/shopspring/decimal"
)

// CartItem is one line of a checkout cart as supplied by the storefront.
type CartItem struct {
	ID         string          `json:"id" validate:"required"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity" validate:"min=1"`
	CategoryID string          `json:"category_id"`
}

// CartSnapshot is the ephemeral discount-evaluation input. It is never
// persisted.
type CartSnapshot struct {
	Items         []CartItem      `json:"items"`
	CartTotal     decimal.Decimal `json:"cart_total"`
	PaymentMethod string          `json:"payment_method"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	CustomerEmail string          `json:"customer_email,omitempty"`
}

// CategorySubtotal sums the line totals for items in the given category.
func (c CartSnapshot) CategorySubtotal(categoryID string) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		if item.CategoryID == categoryID {
			subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return subtotal
}

// TotalQuantity sums the quantities across all cart lines.
func (c CartSnapshot) TotalQuantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
