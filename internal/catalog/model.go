package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

// Size is the fixed set of bottle SKU sizes the shop sells.
type Size string

const (
	Size200ml Size = "200ml"
	Size300ml Size = "300ml"
	Size500ml Size = "500ml"
	Size1L    Size = "1L"
)

func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case Size200ml, Size300ml, Size500ml, Size1L:
		return Size(s), nil
	}
	return "", fmt.Errorf("invalid size %q", s)
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Size        Size            `json:"size"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	Stock       int             `json:"stock"`
	Popular     bool            `json:"popular"`
	Features    []string        `json:"features,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Filter narrows List; nil fields mean "any".
type Filter struct {
	Popular *bool
	Size    *Size
}
