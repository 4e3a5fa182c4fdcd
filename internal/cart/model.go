package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// Cart belongs to exactly one owner key: an authenticated user id or an
// anonymous session id. Guest and user carts are never merged.
type Cart struct {
	ID        string    `json:"id"`
	OwnerKey  string    `json:"owner_key"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
