package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/liquidguard/shop/internal/catalog"
)

// ProductFinder is the slice of the catalog the cart needs: existence checks
// when a line is added. No stock is touched at cart-edit time; carts are
// speculative and must not hold inventory hostage.
type ProductFinder interface {
	Find(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	Store    Store
	Products ProductFinder
}

// GetOrCreate returns the owner's cart, creating an empty one lazily.
func (s *Service) GetOrCreate(ctx context.Context, ownerKey string) (*Cart, error) {
	c, err := s.Store.GetByOwner(ctx, ownerKey)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	c = &Cart{OwnerKey: ownerKey}
	if err := s.Store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem appends a line item, merging quantities when the product is
// already in the cart.
func (s *Service) AddItem(ctx context.Context, ownerKey, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity %d: %w", qty, ErrInvalidQuantity)
	}
	if _, err := s.Products.Find(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.GetOrCreate(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, Item{ID: uuid.NewString(), ProductID: productID, Quantity: qty})
	}

	if err := s.Store.ReplaceItems(ctx, c.ID, c.Items); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem overwrites a line's quantity; qty <= 0 removes the line.
func (s *Service) UpdateItem(ctx context.Context, ownerKey, itemID string, qty int) (*Cart, error) {
	c, err := s.Store.GetByOwner(ctx, ownerKey)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrItemNotFound)
	}

	if qty <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		c.Items[idx].Quantity = qty
	}

	if err := s.Store.ReplaceItems(ctx, c.ID, c.Items); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) RemoveItem(ctx context.Context, ownerKey, itemID string) (*Cart, error) {
	return s.UpdateItem(ctx, ownerKey, itemID, 0)
}

// Clear empties the cart. Clearing an already-empty (or absent) cart is a
// no-op that still returns the cart.
func (s *Service) Clear(ctx context.Context, ownerKey string) (*Cart, error) {
	c, err := s.GetOrCreate(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return c, nil
	}
	c.Items = nil
	if err := s.Store.ReplaceItems(ctx, c.ID, nil); err != nil {
		return nil, err
	}
	return c, nil
}
