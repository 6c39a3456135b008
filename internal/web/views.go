package web

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/guard"
	"go.uber.org/zap"
)

type HomeViewDTO struct {
	View      string             `json:"view"`
	Session   SessionResponseDTO `json:"session"`
	Products  []catalog.Product  `json:"products"`
	ItemCount int                `json:"cart_item_count"`
}

type LoginViewDTO struct {
	View string `json:"view"`
	From string `json:"from"`
}

type CartViewDTO struct {
	View string `json:"view"`
	CartResponseDTO
}

type CheckoutViewDTO struct {
	View           string                          `json:"view"`
	Cart           CartResponseDTO                 `json:"cart"`
	Customer       domain.Customer                 `json:"cliente"`
	Address        domain.Address                  `json:"endereco"`
	PaymentMethods map[domain.PaymentType][]string `json:"payment_methods"`
}

type AccountViewDTO struct {
	View        string           `json:"view"`
	Identity    *domain.Identity `json:"user"`
	Orders      []OrderDTO       `json:"orders"`
	OrdersError string           `json:"orders_error,omitempty"`
}

type ConfirmationViewDTO struct {
	View string `json:"view"`
	domain.Confirmation
}

// GET /
func (s *Server) HomeView(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HomeViewDTO{
		View:      "home",
		Session:   sessionResponse(s.session.State()),
		Products:  catalog.All(),
		ItemCount: s.cart.ItemCount(),
	})
}

// GET /login
//
// An authenticated visitor goes straight to the requested destination.
func (s *Server) LoginView(w http.ResponseWriter, r *http.Request) {
	from := guard.ResumeTarget(r.URL.Query().Get(guard.FromParam))
	if s.session.State().Authenticated() {
		http.Redirect(w, r, from, http.StatusSeeOther)
		return
	}
	s.respondJSON(w, http.StatusOK, LoginViewDTO{View: "login", From: from})
}

// GET /cart
func (s *Server) CartView(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, CartViewDTO{View: "cart", CartResponseDTO: cartResponse(s.cart.Snapshot())})
}

// GET /checkout
//
// An empty cart has nothing to check out; the visitor is sent to the cart.
func (s *Server) CheckoutView(w http.ResponseWriter, r *http.Request) {
	items := s.cart.Snapshot()
	if len(items) == 0 {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	view := CheckoutViewDTO{
		View:           "checkout",
		Cart:           cartResponse(items),
		PaymentMethods: domain.PaymentPlatforms,
	}
	if id := s.session.State().Identity; id != nil {
		view.Customer = domain.Customer{Name: id.FullName, Email: id.Email, Phone: id.Phone, TaxID: id.TaxID}
		view.Address = id.Address
	}
	s.respondJSON(w, http.StatusOK, view)
}

// GET /account
func (s *Server) AccountView(w http.ResponseWriter, r *http.Request) {
	view := AccountViewDTO{
		View:     "account",
		Identity: s.session.State().Identity,
		Orders:   []OrderDTO{},
	}
	orders, err := s.checkout.Orders(r.Context())
	if err != nil {
		view.OrdersError = "could not load orders"
		s.log.Info("account orders unavailable", zap.Error(err))
	} else {
		view.Orders = orderViews(orders)
	}
	s.respondJSON(w, http.StatusOK, view)
}

// GET /confirmation
func (s *Server) ConfirmationView(w http.ResponseWriter, r *http.Request) {
	conf, ok := s.checkout.LastConfirmation()
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.respondJSON(w, http.StatusOK, ConfirmationViewDTO{View: "confirmation", Confirmation: conf})
}
