package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidguard/shop/internal/catalog"
)

func seedProduct(t *testing.T, store *catalog.MemStore, id, name string, price string, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		ID:    id,
		Name:  name,
		Size:  catalog.Size500ml,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func stockOf(t *testing.T, store *catalog.MemStore, id string) int {
	t.Helper()
	p, err := store.Find(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserve_Success(t *testing.T) {
	store := catalog.NewMemStore()
	seedProduct(t, store, "p1", "Sealant 500ml", "24.99", 10)
	seedProduct(t, store, "p2", "Sealant 1L", "39.99", 5)
	r := &Reserver{Catalog: store}

	items, total, err := r.Reserve(context.Background(), []LineItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Sealant 500ml", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("24.99")))
	assert.True(t, total.Equal(decimal.RequireFromString("89.97")), "total = %s", total)

	assert.Equal(t, 8, stockOf(t, store, "p1"))
	assert.Equal(t, 4, stockOf(t, store, "p2"))
}

func TestReserve_ProductNotFound_FirstOffendingLine(t *testing.T) {
	store := catalog.NewMemStore()
	seedProduct(t, store, "p1", "Sealant", "10.00", 10)
	r := &Reserver{Catalog: store}

	_, _, err := r.Reserve(context.Background(), []LineItem{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Contains(t, err.Error(), "ghost")

	// the decrement applied to p1 must have been compensated
	assert.Equal(t, 10, stockOf(t, store, "p1"))
}

// drainingStore buys up stock between the price read and the decrement,
// standing in for a checkout racing past this one.
type drainingStore struct {
	catalog.Store
	drain     int
	productID string
	once      sync.Once
}

func (s *drainingStore) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	s.once.Do(func() {
		ok, err := s.Store.DecrementStock(ctx, s.productID, s.drain)
		if err != nil || !ok {
			panic("drain failed")
		}
	})
	return s.Store.DecrementStock(ctx, id, qty)
}

func TestReserve_InsufficientStock_ReportsCurrentAvailability(t *testing.T) {
	mem := catalog.NewMemStore()
	seedProduct(t, mem, "p1", "Sealant", "10.00", 5)
	store := &drainingStore{Store: mem, productID: "p1", drain: 4}
	r := &Reserver{Catalog: store}

	_, _, err := r.Reserve(context.Background(), []LineItem{{ProductID: "p1", Quantity: 3}})
	require.Error(t, err)

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Requested)
	assert.Equal(t, 1, ise.Available, "availability must reflect the losing read, not the stale one")
}

func TestReserve_InsufficientStock_AllOrNothing(t *testing.T) {
	store := catalog.NewMemStore()
	seedProduct(t, store, "a", "Product A", "10.00", 10)
	seedProduct(t, store, "b", "Product B", "10.00", 1)
	r := &Reserver{Catalog: store}

	_, _, err := r.Reserve(context.Background(), []LineItem{
		{ProductID: "a", Quantity: 3}, // within stock
		{ProductID: "b", Quantity: 5}, // oversells
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var ise *InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "b", ise.ProductID)
	assert.Equal(t, 5, ise.Requested)
	assert.Equal(t, 1, ise.Available)
	assert.Contains(t, err.Error(), "Product B")

	// zero net stock change across the whole batch
	assert.Equal(t, 10, stockOf(t, store, "a"))
	assert.Equal(t, 1, stockOf(t, store, "b"))
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	store := catalog.NewMemStore()
	seedProduct(t, store, "p1", "Sealant", "10.00", 10)
	r := &Reserver{Catalog: store}

	for _, qty := range []int{0, -1} {
		_, _, err := r.Reserve(context.Background(), []LineItem{{ProductID: "p1", Quantity: qty}})
		assert.ErrorIs(t, err, ErrValidation)
	}
	_, _, err := r.Reserve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 10, stockOf(t, store, "p1"))
}

func TestReserve_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	const (
		stock      = 7
		requesters = 50
	)
	store := catalog.NewMemStore()
	seedProduct(t, store, "hot", "Last units", "10.00", stock)
	r := &Reserver{Catalog: store}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := r.Reserve(context.Background(), []LineItem{{ProductID: "hot", Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, requesters-stock, rejected)
	assert.Equal(t, 0, stockOf(t, store, "hot"))
}

func TestRestore_ReturnsStock(t *testing.T) {
	store := catalog.NewMemStore()
	seedProduct(t, store, "p1", "Sealant", "10.00", 5)
	r := &Reserver{Catalog: store}

	items, _, err := r.Reserve(context.Background(), []LineItem{{ProductID: "p1", Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, store, "p1"))

	require.NoError(t, r.Restore(context.Background(), items))
	assert.Equal(t, 5, stockOf(t, store, "p1"))
}
