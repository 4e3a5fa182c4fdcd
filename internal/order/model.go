package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/liquidguard/shop/internal/catalog"
)

type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentCOD    PaymentMethod = "cod"
	PaymentPaypal PaymentMethod = "paypal"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentCard, PaymentCOD, PaymentPaypal:
		return PaymentMethod(s), true
	}
	return "", false
}

// LineItem is a checkout request line: what the client wants, before any
// price or name is trusted.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Item is the frozen snapshot stored on the order. It is deliberately
// decoupled from the live product so historical orders stay accurate when
// catalog prices change.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      catalog.Size    `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type Order struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"external_id,omitempty"`
	UserID          string          `json:"user_id"`
	CustomerInfo    CustomerInfo    `json:"customer_info"`
	Items           []Item          `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress Address         `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Status          Status          `json:"order_status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Filter narrows admin order listings; a nil Status means "any".
type Filter struct {
	Status *Status
}
