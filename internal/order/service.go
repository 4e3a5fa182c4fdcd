package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/liquidguard/shop/internal/cart"
	kafkax "github.com/liquidguard/shop/internal/kafka"
	"github.com/liquidguard/shop/internal/redisx"
)

// Carts is the slice of the cart service checkout needs: resolving the
// owner's line items and clearing the cart once the order is persisted.
type Carts interface {
	GetOrCreate(ctx context.Context, ownerKey string) (*cart.Cart, error)
	Clear(ctx context.Context, ownerKey string) (*cart.Cart, error)
}

// Publisher is satisfied by kafkax.Producer. Nil publishers are skipped so
// tests run without a broker.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service orchestrates checkout and the order lifecycle. The sequencing in
// PlaceOrder guarantees an order is never created with stock that was not
// actually reserved, and a failed checkout never leaves a partially
// decremented catalog or a silently emptied cart.
type Service struct {
	Store    Store
	Reserver *Reserver
	Carts    Carts

	Redis             *redis.Client // optional: idempotency fast path + status cache
	PlacedProducer    Publisher
	CancelledProducer Publisher
	StatusProducer    Publisher
	ServiceName       string
}

type PlaceOrderInput struct {
	OwnerKey string // cart owner key; the cart is cleared on success
	UserID   string
	Customer CustomerInfo

	// Items overrides the cart when non-empty; otherwise the owner's cart is
	// the source of line items.
	Items []LineItem

	ShippingAddress Address
	PaymentMethod   PaymentMethod
	IdempotencyKey  string // optional client-supplied external id
	TraceID         string
}

// PlaceOrder runs the checkout: resolve line items, reserve the whole batch
// atomically, persist the order, clear the cart. existed reports an
// idempotent replay of a previously placed order.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (o *Order, existed bool, err error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, false, err
	}

	if in.IdempotencyKey != "" {
		if prev, ok := s.lookupIdempotent(ctx, in.IdempotencyKey); ok {
			return prev, true, nil
		}
	}

	items := in.Items
	if len(items) == 0 {
		c, err := s.Carts.GetOrCreate(ctx, in.OwnerKey)
		if err != nil {
			return nil, false, err
		}
		for _, it := range c.Items {
			items = append(items, LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
		}
	}

	snapshots, total, err := s.Reserver.Reserve(ctx, items)
	if err != nil {
		// nothing was decremented; the cart stays as it was
		return nil, false, err
	}

	o = &Order{
		ID:              uuid.NewString(),
		ExternalID:      in.IdempotencyKey,
		UserID:          in.UserID,
		CustomerInfo:    in.Customer,
		Items:           snapshots,
		Total:           total,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
	}
	if err := s.Store.Create(ctx, o); err != nil {
		// the reservation is already applied; hand the stock back
		if rerr := s.Reserver.Restore(context.WithoutCancel(ctx), snapshots); rerr != nil {
			log.Printf("release reservation after failed create: %v", rerr)
		}
		return nil, false, err
	}

	// a successful checkout always empties the owner's cart, even when the
	// line items came in explicitly
	if in.OwnerKey != "" {
		if _, err := s.Carts.Clear(ctx, in.OwnerKey); err != nil {
			log.Printf("clear cart %s after checkout: %v", in.OwnerKey, err)
		}
	}

	if in.IdempotencyKey != "" && s.Redis != nil {
		key := fmt.Sprintf(redisx.KeyIdemCheckout, in.IdempotencyKey)
		_ = s.Redis.Set(ctx, key, o.ID, redisx.TTLIdempotency).Err()
	}
	s.cacheStatus(ctx, o)

	s.publish(s.PlacedProducer, EventOrderPlaced, o.ID, in.TraceID, OrderPlacedPayload{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Items:         o.Items,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
	})
	return o, false, nil
}

// CancelOrder is the customer path: pending orders only. The pending ->
// cancelled move is a compare-and-swap, so a retried or concurrent cancel
// restocks at most once.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if o.Status != StatusPending {
		return nil, &CancellationNotAllowedError{Current: o.Status}
	}

	ok, err := s.Store.Transition(ctx, orderID, StatusPending, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race; report whatever status won
		cur, err := s.Store.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return nil, &CancellationNotAllowedError{Current: cur.Status}
	}
	o.Status = StatusCancelled

	if err := s.Reserver.Restore(context.WithoutCancel(ctx), o.Items); err != nil {
		return nil, err
	}

	s.cacheStatus(ctx, o)
	s.publish(s.CancelledProducer, EventOrderCancelled, o.ID, "", OrderCancelledPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Restocked: toLineItems(o.Items),
	})
	return o, nil
}

// UpdateStatus is the administrative path. Status moves must still follow
// the transition graph; payment status is bookkeeping and may change on its
// own, including on terminal orders.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status *Status, pay *PaymentStatus) (*Order, error) {
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if status != nil && *status != o.Status {
		if !CanTransition(o.Status, *status) {
			return nil, &InvalidTransitionError{From: o.Status, To: *status}
		}
		ok, err := s.Store.Transition(ctx, orderID, o.Status, *status)
		if err != nil {
			return nil, err
		}
		if !ok {
			cur, err := s.Store.Get(ctx, orderID)
			if err != nil {
				return nil, err
			}
			return nil, &InvalidTransitionError{From: cur.Status, To: *status}
		}
		// an admin cancellation releases the reservation too
		if *status == StatusCancelled {
			if err := s.Reserver.Restore(context.WithoutCancel(ctx), o.Items); err != nil {
				return nil, err
			}
		}
		o.Status = *status
	}

	if pay != nil && *pay != o.PaymentStatus {
		if err := s.Store.SetStatuses(ctx, orderID, nil, pay); err != nil {
			return nil, err
		}
		o.PaymentStatus = *pay
	}

	s.cacheStatus(ctx, o)
	s.publish(s.StatusProducer, EventOrderStatusChanged, o.ID, "", OrderStatusChangedPayload{
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: pay,
	})
	return o, nil
}

// GetOrder is owner-scoped: another user's order reads as not found.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return s.Store.ListByUser(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context, f Filter) ([]Order, error) {
	return s.Store.ListAll(ctx, f)
}

func (s *Service) lookupIdempotent(ctx context.Context, key string) (*Order, bool) {
	if s.Redis != nil {
		rkey := fmt.Sprintf(redisx.KeyIdemCheckout, key)
		if id, err := s.Redis.Get(ctx, rkey).Result(); err == nil && id != "" {
			if o, err := s.Store.Get(ctx, id); err == nil {
				return o, true
			}
		}
	}
	// the store stays the source of truth when the cache misses
	if o, err := s.Store.GetByExternalID(ctx, key); err == nil {
		return o, true
	} else if !errors.Is(err, ErrNotFound) {
		log.Printf("idempotency lookup %s: %v", key, err)
	}
	return nil, false
}

func (s *Service) cacheStatus(ctx context.Context, o *Order) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.UserID, o.ID)
	body := fmt.Sprintf(`{"order_status":%q,"payment_status":%q}`, o.Status, o.PaymentStatus)
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (s *Service) publish(p Publisher, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if in.UserID == "" {
		return &ValidationError{Field: "user_id", Msg: "required"}
	}
	addr := map[string]string{
		"shipping_address.street":   in.ShippingAddress.Street,
		"shipping_address.city":     in.ShippingAddress.City,
		"shipping_address.state":    in.ShippingAddress.State,
		"shipping_address.zip_code": in.ShippingAddress.ZipCode,
		"shipping_address.country":  in.ShippingAddress.Country,
	}
	for _, field := range []string{
		"shipping_address.street", "shipping_address.city", "shipping_address.state",
		"shipping_address.zip_code", "shipping_address.country",
	} {
		if addr[field] == "" {
			return &ValidationError{Field: field, Msg: "required"}
		}
	}
	if in.PaymentMethod == "" {
		return &ValidationError{Field: "payment_method", Msg: "required"}
	}
	if _, ok := ParsePaymentMethod(string(in.PaymentMethod)); !ok {
		return &ValidationError{Field: "payment_method", Msg: fmt.Sprintf("unknown method %q", in.PaymentMethod)}
	}
	return nil
}

func toLineItems(items []Item) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
