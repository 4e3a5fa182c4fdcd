package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced    = "shop.order.placed"
	TopicOrderCancelled = "shop.order.cancelled"
	TopicOrderStatus    = "shop.order.status"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every event published to the order topics. Partition key is
// the order id so a single order's events keep their relative ordering.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func PartitionKey(orderID string) []byte { return []byte(orderID) }

type OrderPlacedPayload struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Items         []Item          `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

type OrderCancelledPayload struct {
	OrderID   string     `json:"order_id"`
	UserID    string     `json:"user_id"`
	Restocked []LineItem `json:"restocked"`
}

type OrderStatusChangedPayload struct {
	OrderID       string         `json:"order_id"`
	Status        Status         `json:"order_status"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
}
