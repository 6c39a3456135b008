package web

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

// maxLineQuantity caps a single cart line on this surface.
const maxLineQuantity = 99

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items     domain.Cart `json:"items"`
	Total     float64     `json:"total"`
	ItemCount int         `json:"item_count"`
}

func cartResponse(items domain.Cart) CartResponseDTO {
	return CartResponseDTO{
		Items:     items.Clone(),
		Total:     items.Total(),
		ItemCount: items.ItemCount(),
	}
}

// GET /api/cart
func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, cartResponse(s.cart.Snapshot()))
}

// POST /api/cart/items
func (s *Server) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		s.respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1 // omitted
	}
	if req.Quantity < 1 || req.Quantity > maxLineQuantity {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	current := s.cart.Snapshot()
	if idx := current.IndexOf(req.ProductID); idx >= 0 && current[idx].Quantity+req.Quantity > maxLineQuantity {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "line quantity must be at most 99")
		return
	}

	product, err := catalog.Lookup(req.ProductID)
	if err != nil {
		s.handleError(w, err)
		return
	}

	items, err := s.cart.AddItem(r.Context(), product.Item(req.Quantity))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, cartResponse(items))
}

// PUT /api/cart/items/{product_id}
func (s *Server) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > maxLineQuantity {
		s.respondError(w, http.StatusBadRequest, "invalid_quantity", "line quantity must be at most 99")
		return
	}

	s.respondJSON(w, http.StatusOK, cartResponse(s.cart.UpdateQuantity(r.Context(), productID, req.Quantity)))
}

// DELETE /api/cart/items/{product_id}
func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	s.respondJSON(w, http.StatusOK, cartResponse(s.cart.RemoveItem(r.Context(), productID)))
}

// DELETE /api/cart
func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	s.cart.Clear(r.Context())
	s.respondJSON(w, http.StatusOK, cartResponse(domain.Cart{}))
}
