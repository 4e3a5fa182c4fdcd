package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is the in-memory Store used by tests.
type MemStore struct {
	mu      sync.Mutex
	byOwner map[string]*Cart
}

func NewMemStore() *MemStore {
	return &MemStore{byOwner: map[string]*Cart{}}
}

func (s *MemStore) GetByOwner(ctx context.Context, ownerKey string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byOwner[ownerKey]
	if !ok {
		return nil, fmt.Errorf("owner %s: %w", ownerKey, ErrNotFound)
	}
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	return &cp, nil
}

func (s *MemStore) Create(ctx context.Context, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	cp.Items = append([]Item(nil), c.Items...)
	s.byOwner[c.OwnerKey] = &cp
	return nil
}

func (s *MemStore) ReplaceItems(ctx context.Context, cartID string, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byOwner {
		if c.ID == cartID {
			c.Items = append([]Item(nil), items...)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("cart %s: %w", cartID, ErrNotFound)
}
