package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps the catalog in memory behind one mutex, giving the same
// linearizable stock semantics as the conditional SQL update. Used by tests
// and local experiments.
type MemStore struct {
	mu       sync.Mutex
	products map[string]*Product
}

func NewMemStore() *MemStore {
	return &MemStore{products: map[string]*Product{}}
}

func (s *MemStore) Find(ctx context.Context, id string) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) List(ctx context.Context, f Filter) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Product
	for _, p := range s.products {
		if f.Popular != nil && p.Popular != *f.Popular {
			continue
		}
		if f.Size != nil && p.Size != *f.Size {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemStore) Create(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *MemStore) Update(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	stock := cur.Stock
	cp := *p
	cp.Stock = stock // stock only moves through the atomic ops
	cp.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = &cp
	return nil
}

func (s *MemStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemStore) IncrementStock(ctx context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	return nil
}
