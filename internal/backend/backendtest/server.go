// Package backendtest provides an in-process fake of the storefront
// backend for tests. It keeps accounts, carts and orders in memory and
// speaks the same envelope format as the real service.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type account struct {
	identity domain.Identity
	secret   string
}

// Server is a fake backend listening on a local port.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]string  // token -> email
	carts    map[string]domain.Cart
	orders   map[string][]domain.Order
	saves    []domain.Cart
	clears   int
	next     int

	failCart     bool
	refuseOrders string
	costs        map[string]float64 // missing states cost 30
}

// New starts a fake backend that is closed with the test.
func New(t testing.TB) *Server {
	s := &Server{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		carts:    make(map[string]domain.Cart),
		orders:   make(map[string][]domain.Order),
		costs:    map[string]float64{"SP": 15, "RJ": 18, "MG": 20},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("GET /api/auth/me", s.authed(s.me))
	mux.HandleFunc("GET /api/cart/get", s.authed(s.getCart))
	mux.HandleFunc("POST /api/cart/save", s.authed(s.saveCart))
	mux.HandleFunc("DELETE /api/cart/clear", s.authed(s.clearCart))
	mux.HandleFunc("POST /api/orders/create", s.authed(s.createOrder))
	mux.HandleFunc("GET /api/orders/my-orders", s.authed(s.myOrders))
	mux.HandleFunc("GET /api/utils/cep/{code}", s.postal)
	mux.HandleFunc("GET /api/utils/shipping/{region}", s.shipping)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddAccount registers an identity with its secret.
func (s *Server) AddAccount(identity domain.Identity, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity.ID == "" {
		s.next++
		identity.ID = fmt.Sprintf("user-%d", s.next)
	}
	s.accounts[identity.Email] = account{identity: identity, secret: secret}
}

// IssueToken returns a valid token for email without a login call.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

func (s *Server) issueLocked(email string) string {
	s.next++
	token := fmt.Sprintf("token-%d", s.next)
	s.tokens[token] = email
	return token
}

// FailCart makes every /cart call answer 500 while on.
func (s *Server) FailCart(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCart = on
}

// RefuseOrders makes /orders/create answer success=false with message.
// An empty message accepts orders again.
func (s *Server) RefuseOrders(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuseOrders = message
}

func (s *Server) SetCart(email string, cart domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[email] = cart.Clone()
}

func (s *Server) Cart(email string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[email].Clone()
}

// Saves lists every cart received on /cart/save, in arrival order.
func (s *Server) Saves() []domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Cart(nil), s.saves...)
}

func (s *Server) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

func (s *Server) Orders(email string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders[email]...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func envelope(message string, data any) map[string]any {
	return map[string]any{"success": true, "message": message, "data": data}
}

func (s *Server) authed(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		email, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token inválido"})
			return
		}
		next(w, r, email)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Secret string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok || acc.secret != req.Secret {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Email ou senha incorretos"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login realizado com sucesso",
		"user":    acc.identity,
		"token":   s.issueLocked(req.Email),
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[reg.Email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email já cadastrado"})
		return
	}
	s.next++
	s.accounts[reg.Email] = account{
		identity: domain.Identity{
			ID:       fmt.Sprintf("user-%d", s.next),
			FullName: reg.FullName,
			Email:    reg.Email,
			Phone:    reg.Phone,
			TaxID:    reg.TaxID,
			Address:  reg.Address,
		},
		secret: reg.Secret,
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Usuário cadastrado com sucesso"})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, email string) {
	s.mu.Lock()
	acc := s.accounts[email]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, acc.identity)
}

func (s *Server) cartFailure(w http.ResponseWriter) bool {
	s.mu.Lock()
	fail := s.failCart
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Erro ao salvar carrinho"})
	}
	return fail
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request, email string) {
	if s.cartFailure(w) {
		return
	}
	s.mu.Lock()
	cart := s.carts[email].Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, envelope("Carrinho recuperado com sucesso", map[string]any{"cart": cart}))
}

func (s *Server) saveCart(w http.ResponseWriter, r *http.Request, email string) {
	if s.cartFailure(w) {
		return
	}
	var cart domain.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}
	s.mu.Lock()
	s.carts[email] = cart.Clone()
	s.saves = append(s.saves, cart.Clone())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Carrinho salvo com sucesso"})
}

func (s *Server) clearCart(w http.ResponseWriter, _ *http.Request, email string) {
	if s.cartFailure(w) {
		return
	}
	s.mu.Lock()
	delete(s.carts, email)
	s.clears++
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Carrinho limpo com sucesso"})
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, email string) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"invalid body"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refuseOrders != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": s.refuseOrders})
		return
	}
	s.next++
	paymentID := fmt.Sprintf("pay-%d", s.next)
	s.orders[email] = append(s.orders[email], domain.Order{
		ID:        fmt.Sprintf("order-%d", s.next),
		UserID:    s.accounts[email].identity.ID,
		Items:     req.Items,
		Customer:  req.Customer,
		Address:   req.Address,
		Payment:   req.Payment,
		Total:     req.Total,
		Status:    domain.OrderStatusPending,
		PaymentID: paymentID,
	})
	writeJSON(w, http.StatusOK, domain.Confirmation{
		Success:    true,
		Message:    "Pedido criado com sucesso",
		PaymentID:  paymentID,
		PaymentURL: "https://payments.example/" + paymentID,
	})
}

func (s *Server) myOrders(w http.ResponseWriter, _ *http.Request, email string) {
	s.mu.Lock()
	orders := append([]domain.Order{}, s.orders[email]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, envelope("Pedidos recuperados", map[string]any{"orders": orders}))
}

func (s *Server) postal(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code != "01310100" {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "CEP não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, envelope("CEP encontrado", map[string]any{"endereco": domain.Address{
		PostalCode: code,
		Street:     "Avenida Paulista",
		District:   "Bela Vista",
		City:       "São Paulo",
		State:      "SP",
	}}))
}

func (s *Server) shipping(w http.ResponseWriter, r *http.Request) {
	region := strings.ToUpper(r.PathValue("region"))
	s.mu.Lock()
	cost, ok := s.costs[region]
	s.mu.Unlock()
	if !ok {
		cost = 30
	}
	writeJSON(w, http.StatusOK, envelope("Frete calculado", map[string]any{"estado": region, "shipping_cost": cost}))
}
