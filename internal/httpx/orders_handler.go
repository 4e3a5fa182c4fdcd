package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/liquidguard/shop/internal/order"
	"github.com/liquidguard/shop/internal/redisx"
)

type OrdersHandler struct {
	Orders *order.Service
	Redis  *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Get("/admin/orders", h.listAllOrders)
}

type checkoutReq struct {
	Items []order.LineItem `json:"items,omitempty"`
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customer"`
	ShippingAddress order.Address `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method"`
	IdempotencyKey  string        `json:"idempotency_key,omitempty"`
}

type checkoutResp struct {
	Order      *order.Order `json:"order"`
	Idempotent bool         `json:"idempotent"`
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := r.Header.Get("X-User-Id")
	if uid == "" {
		writeError(w, http.StatusUnauthorized, "user not authenticated")
		return "", false
	}
	return uid, true
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	method := req.PaymentMethod
	if method == "" {
		method = string(order.PaymentCard)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, existed, err := h.Orders.PlaceOrder(ctx, order.PlaceOrderInput{
		OwnerKey: "user:" + uid,
		UserID:   uid,
		Customer: order.CustomerInfo{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   order.PaymentMethod(method),
		IdempotencyKey:  req.IdempotencyKey,
		TraceID:         r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	code := http.StatusCreated
	if existed {
		code = http.StatusOK
	}
	writeJSON(w, code, checkoutResp{Order: o, Idempotent: existed})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Orders.ListOrders(ctx, uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(orders), "orders": orders})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// getStatus serves from the Redis status cache first and falls back to the
// store, re-priming the cache on a miss. The cache key carries the owner's
// user id, so a hit can only ever return the caller's own order.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, uid, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Orders.GetOrder(ctx, orderID, uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	body := map[string]any{"order_status": o.Status, "payment_status": o.PaymentStatus}
	if h.Redis != nil {
		b, _ := json.Marshal(body)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.CancelOrder(ctx, chi.URLParam(r, "id"), uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderStatus   string `json:"order_status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var st *order.Status
	if req.OrderStatus != "" {
		s, ok := order.ParseStatus(req.OrderStatus)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown order status %q", req.OrderStatus))
			return
		}
		st = &s
	}
	var pay *order.PaymentStatus
	if req.PaymentStatus != "" {
		p, ok := order.ParsePaymentStatus(req.PaymentStatus)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown payment status %q", req.PaymentStatus))
			return
		}
		pay = &p
	}
	if st == nil && pay == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, chi.URLParam(r, "id"), st, pay)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	var f order.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		s, ok := order.ParseStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown order status %q", v))
			return
		}
		f.Status = &s
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Orders.ListAllOrders(ctx, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(orders), "orders": orders})
}
