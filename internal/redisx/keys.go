package redisx

import "time"

const (
	// Idempotency checkout: idem:checkout:{key} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Cache status order, scoped to the owner so a cache hit can only serve
	// that user's own order: order_status:{user_id}:{order_id} ->
	// {"order_status":"...","payment_status":"..."}
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
