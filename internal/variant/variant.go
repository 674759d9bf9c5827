package variant

import "github.com/shopspring/decimal"

// Variant is a sellable product variant and maps to the
// `product_variants` table. Price is fixed-point; stock is the
// available quantity guarded by the stock ledger.
type Variant struct {
	VariantID   int             `json:"variantId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stockQuantity"`
}
