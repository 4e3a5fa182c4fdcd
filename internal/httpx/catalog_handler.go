package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/liquidguard/shop/internal/catalog"
)

type CatalogHandler struct {
	Store catalog.Store
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Patch("/products/{id}/stock", h.adjustStock)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var f catalog.Filter
	if v := r.URL.Query().Get("popular"); v == "true" || v == "false" {
		b := v == "true"
		f.Popular = &b
	}
	if v := r.URL.Query().Get("size"); v != "" {
		size, err := catalog.ParseSize(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Size = &size
	}

	ps, err := h.Store.List(ctx, f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Store.Find(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Size        string   `json:"size"`
	Price       string   `json:"price"`
	ImageURL    string   `json:"image_url"`
	Stock       int      `json:"stock"`
	Popular     bool     `json:"popular"`
	Features    []string `json:"features"`
}

func (r productReq) toProduct() (*catalog.Product, error) {
	if r.Name == "" {
		return nil, errors.New("name is required")
	}
	size, err := catalog.ParseSize(r.Size)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("price must be a non-negative number")
	}
	if r.Stock < 0 {
		return nil, errors.New("stock must be a non-negative integer")
	}
	return &catalog.Product{
		Name:        r.Name,
		Description: r.Description,
		Size:        size,
		Price:       price,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		Popular:     r.Popular,
		Features:    r.Features,
	}, nil
}

func (h *CatalogHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := req.toProduct()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Create(ctx, p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) update(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := req.toProduct()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Update(ctx, p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// adjustStock is the admin resupply/correction path. It goes through the
// same atomic increment/decrement the reservation engine uses, so stock can
// never be driven negative by a correction racing a checkout.
func (h *CatalogHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	id := chi.URLParam(r, "id")

	if _, err := h.Store.Find(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Delta > 0 {
		if err := h.Store.IncrementStock(ctx, id, req.Delta); err != nil {
			writeDomainError(w, err)
			return
		}
	} else {
		ok, err := h.Store.DecrementStock(ctx, id, -req.Delta)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "stock cannot go negative")
			return
		}
	}

	p, err := h.Store.Find(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
