package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/liquidguard/shop/internal/cart"
)

type CartHandler struct {
	Carts *cart.Service
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{itemID}", h.updateItem)
	r.Delete("/cart/items/{itemID}", h.removeItem)
	r.Delete("/cart", h.clearCart)
}

// ownerKey builds the cart owner identity from headers set by the identity
// layer. User and session carts live in separate key spaces and are never
// merged.
func ownerKey(r *http.Request) string {
	if uid := r.Header.Get("X-User-Id"); uid != "" {
		return "user:" + uid
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return "sess:" + sid
	}
	return ""
}

func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := ownerKey(r)
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-Id or X-Session-Id")
		return "", false
	}
	return key, true
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	key, ok := requireOwner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.GetOrCreate(ctx, key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	key, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.AddItem(ctx, key, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	key, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.UpdateItem(ctx, key, chi.URLParam(r, "itemID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	key, ok := requireOwner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.RemoveItem(ctx, key, chi.URLParam(r, "itemID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	key, ok := requireOwner(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.Clear(ctx, key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
