package web

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CheckoutRequestDTO struct {
	Customer domain.Customer `json:"cliente"`
	Address  domain.Address  `json:"endereco"`
	Payment  domain.Payment  `json:"pagamento"`
}

type OrderDTO struct {
	domain.Order
	StatusLabel string `json:"status_label"`
}

func orderViews(orders []domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderDTO{Order: o, StatusLabel: o.Status.Label()})
	}
	return out
}

// POST /api/checkout
//
// A refused order answers 402 with the backend's message and leaves the
// cart intact.
func (s *Server) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	conf, err := s.checkout.PlaceOrder(r.Context(), checkout.Form{
		Customer: req.Customer,
		Address:  req.Address,
		Payment:  req.Payment,
	})
	if err != nil {
		s.handleError(w, err)
		return
	}
	if !conf.Success {
		s.respondJSON(w, http.StatusPaymentRequired, conf)
		return
	}
	if conf.Redirect == "" {
		conf.Redirect = "/confirmation"
	}
	s.respondJSON(w, http.StatusCreated, conf)
}

// GET /api/orders
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.checkout.Orders(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, orderViews(orders))
}

// GET /api/utils/cep/{code}
func (s *Server) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	addr, err := s.checkout.LookupAddress(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, addr)
}

// GET /api/utils/shipping/{region}
func (s *Server) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	cost, err := s.checkout.QuoteShipping(r.Context(), region)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"region": region, "shipping_cost": cost})
}
