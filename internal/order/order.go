package order

import "github.com/shopspring/decimal"

// Order is created once per checkout. Its identity and total are fixed
// at creation; only status, payment status and the version counter
// change afterwards.
type Order struct {
	OrderID         int             `json:"orderId"`
	UserID          int             `json:"userId"`
	Status          Status          `json:"status"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ShippingAddress string          `json:"shippingAddress"`
	ShippingPhone   string          `json:"shippingPhone"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Version         int             `json:"-"`
	Lines           []Line          `json:"orderLines"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Line snapshots a variant's price and quantity at order-creation
// time, so later catalog price changes never touch an existing order.
type Line struct {
	OrderLineID int             `json:"orderLineId"`
	OrderID     int             `json:"orderId"`
	VariantID   int             `json:"variantId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Subtotal is unitPrice * quantity in fixed-point arithmetic.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
