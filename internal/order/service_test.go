package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liquidguard/shop/internal/cart"
	"github.com/liquidguard/shop/internal/catalog"
)

type fixture struct {
	catalog *catalog.MemStore
	carts   *cart.Service
	orders  *MemStore
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cs := catalog.NewMemStore()
	carts := &cart.Service{Store: cart.NewMemStore(), Products: cs}
	orders := NewMemStore()
	return &fixture{
		catalog: cs,
		carts:   carts,
		orders:  orders,
		svc: &Service{
			Store:       orders,
			Reserver:    &Reserver{Catalog: cs},
			Carts:       carts,
			ServiceName: "test",
		},
	}
}

func validInput(userID string, items ...LineItem) PlaceOrderInput {
	return PlaceOrderInput{
		OwnerKey: "user:" + userID,
		UserID:   userID,
		Customer: CustomerInfo{Name: "Jo Customer", Email: "jo@example.com"},
		Items:    items,
		ShippingAddress: Address{
			Street: "1 Main St", City: "Springfield", State: "IL",
			ZipCode: "62704", Country: "US",
		},
		PaymentMethod: PaymentCard,
	}
}

func TestPlaceOrder_Scenario(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 5)
	ctx := context.Background()

	// first checkout: qty 3 succeeds, stock 5 -> 2, total 30.00
	o, existed, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 3}))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("30.00")), "total = %s", o.Total)
	assert.Equal(t, 2, stockOf(t, f.catalog, "P"))

	// second checkout: qty 3 no longer fits, stock stays 2, no order
	_, _, err = f.svc.PlaceOrder(ctx, validInput("u2", LineItem{ProductID: "P", Quantity: 3}))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, f.catalog, "P"))
	all, err := f.svc.ListAllOrders(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// cancel the first order: stock back to 5, status cancelled
	cancelled, err := f.svc.CancelOrder(ctx, o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, stockOf(t, f.catalog, "P"))
}

func TestPlaceOrder_FromCart_ClearsCartOnSuccess(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "12.50", 10)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, "user:u1", "P", 2)
	require.NoError(t, err)

	in := validInput("u1") // no explicit items: resolve from cart
	o, _, err := f.svc.PlaceOrder(ctx, in)
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("25.00")))

	c, err := f.carts.GetOrCreate(ctx, "user:u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items, "cart must be cleared after checkout")
}

func TestPlaceOrder_ExplicitItems_StillClearsCart(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "12.50", 10)
	ctx := context.Background()

	// the cart holds qty 2, but the request carries its own line items
	_, err := f.carts.AddItem(ctx, "user:u1", "P", 2)
	require.NoError(t, err)

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 1, o.Items[0].Quantity)

	c, err := f.carts.GetOrCreate(ctx, "user:u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items, "checkout empties the cart regardless of item source")
}

func TestPlaceOrder_ReservationFailure_LeavesCartUntouched(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 1)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, "user:u1", "P", 5)
	require.NoError(t, err)

	_, _, err = f.svc.PlaceOrder(ctx, validInput("u1"))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	c, err := f.carts.GetOrCreate(ctx, "user:u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, 1, stockOf(t, f.catalog, "P"))
}

func TestPlaceOrder_ValidatesShippingAddress(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 5)

	in := validInput("u1", LineItem{ProductID: "P", Quantity: 1})
	in.ShippingAddress.City = ""
	_, _, err := f.svc.PlaceOrder(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "city")
	assert.Equal(t, 5, stockOf(t, f.catalog, "P"))
}

func TestPlaceOrder_IdempotencyKeyReplaysExistingOrder(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	in := validInput("u1", LineItem{ProductID: "P", Quantity: 2})
	in.IdempotencyKey = "client-req-1"

	first, existed, err := f.svc.PlaceOrder(ctx, in)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.Equal(t, 8, stockOf(t, f.catalog, "P"))

	replay, existed, err := f.svc.PlaceOrder(ctx, in)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, replay.ID)
	// no second reservation happened
	assert.Equal(t, 8, stockOf(t, f.catalog, "P"))
}

func TestCancelOrder_OnlyPending(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)

	st := StatusProcessing
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)
	st = StatusShipped
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, o.ID, "u1")
	require.ErrorIs(t, err, ErrCancellationNotAllowed)
	assert.Contains(t, err.Error(), "shipped")
	assert.Equal(t, 9, stockOf(t, f.catalog, "P"), "no stock restored on refused cancel")
}

func TestCancelOrder_RetryDoesNotRestoreTwice(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, f.catalog, "P"))

	_, err = f.svc.CancelOrder(ctx, o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, f.catalog, "P"))

	_, err = f.svc.CancelOrder(ctx, o.ID, "u1")
	require.ErrorIs(t, err, ErrCancellationNotAllowed)
	assert.Equal(t, 10, stockOf(t, f.catalog, "P"), "retried cancel must not restock again")
}

func TestCancelOrder_OtherUsersOrderReadsAsNotFound(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, o.ID, "intruder")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus_RespectsGraph(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)

	// pending -> shipped skips processing
	st := StatusShipped
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// walk the happy path to delivered, settling payment on the way
	st = StatusProcessing
	pay := PaymentCompleted
	upd, err := f.svc.UpdateStatus(ctx, o.ID, &st, &pay)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, upd.Status)
	assert.Equal(t, PaymentCompleted, upd.PaymentStatus)

	st = StatusShipped
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)
	st = StatusDelivered
	upd, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, upd.Status)

	// delivered is terminal
	st = StatusProcessing
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_AdminCancellationRestocks(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 3}))
	require.NoError(t, err)

	st := StatusProcessing
	_, err = f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, stockOf(t, f.catalog, "P"))

	// admin may still cancel a processing order; reservation is released
	st = StatusCancelled
	upd, err := f.svc.UpdateStatus(ctx, o.ID, &st, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, upd.Status)
	assert.Equal(t, 10, stockOf(t, f.catalog, "P"))
}

func TestUpdateStatus_PaymentBookkeepingOnCancelledOrder(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, o.ID, "u1")
	require.NoError(t, err)

	// payment status may still be settled on a cancelled order
	pay := PaymentFailed
	upd, err := f.svc.UpdateStatus(ctx, o.ID, nil, &pay)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, upd.Status)
	assert.Equal(t, PaymentFailed, upd.PaymentStatus)
}

func TestGetOrder_OwnerScoped(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, o.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, o.ID, "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAllOrders_StatusFilter(t *testing.T) {
	f := newFixture(t)
	seedProduct(t, f.catalog, "P", "Sealant", "10.00", 10)
	ctx := context.Background()

	o1, _, err := f.svc.PlaceOrder(ctx, validInput("u1", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)
	_, _, err = f.svc.PlaceOrder(ctx, validInput("u2", LineItem{ProductID: "P", Quantity: 1}))
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, o1.ID, "u1")
	require.NoError(t, err)

	st := StatusCancelled
	got, err := f.svc.ListAllOrders(ctx, Filter{Status: &st})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, o1.ID, got[0].ID)

	got, err = f.svc.ListAllOrders(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
