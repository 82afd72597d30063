package models

import "github.com/shopspring/decimal"

// LineItem is one product entry in a cart, keyed by ProductID.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

// CartSnapshot is a derived, read-only view of the cart totals.
type CartSnapshot struct {
	Items          []LineItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalItemCount int             `json:"total_item_count"`
}

// IsEmpty reports whether the snapshot has no line items.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
