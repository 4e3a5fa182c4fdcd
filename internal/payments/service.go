package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/liquidguard/shop/internal/kafka"
	"github.com/liquidguard/shop/internal/order"
	"github.com/liquidguard/shop/internal/redisx"
)

// Service is the stub payment gateway: it consumes OrderPlaced events and
// settles them immediately. Card and paypal orders get payment completed and
// move to processing; cash-on-delivery moves to processing with payment
// still pending until delivery.
type Service struct {
	Orders      *order.Service
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env order.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != order.EventOrderPlaced {
		return nil
	}

	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "payments", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[order.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	st := order.StatusProcessing
	var pay *order.PaymentStatus
	if p.PaymentMethod != order.PaymentCOD {
		completed := order.PaymentCompleted
		pay = &completed
	}

	_, err = s.Orders.UpdateStatus(ctx, p.OrderID, &st, pay)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, order.ErrInvalidTransition):
		// cancelled or already settled before we got here
		return nil
	case errors.Is(err, order.ErrNotFound):
		return nil
	default:
		return err
	}
}
