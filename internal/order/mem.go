package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore backs tests with the same CAS transition semantics the SQL store
// gets from its conditional update.
type MemStore struct {
	mu     sync.Mutex
	orders map[string]*Order
}

func NewMemStore() *MemStore {
	return &MemStore{orders: map[string]*Order{}}
}

func (s *MemStore) Create(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	s.orders[o.ID] = &cp
	return nil
}

func (s *MemStore) Get(ctx context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return copyOrder(o), nil
}

func (s *MemStore) GetByExternalID(ctx context.Context, externalID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ExternalID == externalID {
			return copyOrder(o), nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", externalID, ErrNotFound)
}

func (s *MemStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) ListAll(ctx context.Context, f Filter) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) Transition(ctx context.Context, id string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemStore) SetStatuses(ctx context.Context, id string, status *Status, pay *PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if status != nil {
		o.Status = *status
	}
	if pay != nil {
		o.PaymentStatus = *pay
	}
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func copyOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}

func sortNewestFirst(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
