package cart

import "github.com/shopspring/decimal"

// Cart belongs to exactly one user. It is created lazily the first
// time the user puts something in it and never deleted afterwards.
type Cart struct {
	CartID int        `json:"cartId"`
	UserID int        `json:"userId"`
	Lines  []CartLine `json:"lines"`
}

// CartLine is unique per (cart, variant); adding a variant that is
// already present increments the quantity instead of duplicating the
// line.
type CartLine struct {
	CartLineID  int             `json:"cartLineId"`
	VariantID   int             `json:"variantId"`
	ProductName string          `json:"productName"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// SelectedLine is what the cart selector hands to checkout: the line
// plus the variant's current price, resolved in one query.
type SelectedLine struct {
	CartLineID  int
	VariantID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}
