package checkout

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
	"go.uber.org/zap"
)

const orderFailedMessage = "order creation failed"

type API interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error)
	MyOrders(ctx context.Context) ([]domain.Order, error)
	LookupPostalCode(ctx context.Context, code string) (domain.Address, error)
	ShippingQuote(ctx context.Context, region string) (float64, error)
}

type Cart interface {
	Snapshot() domain.Cart
	Clear(ctx context.Context)
}

type Session interface {
	State() session.State
}

// Form is what the buyer fills in on the checkout view.
type Form struct {
	Customer domain.Customer
	Address  domain.Address
	Payment  domain.Payment
}

type Service struct {
	api     API
	cart    Cart
	session Session
	log     *zap.Logger

	mu   sync.RWMutex
	last *domain.Confirmation
}

func NewService(api API, cart Cart, sess Session, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		api:     api,
		cart:    cart,
		session: sess,
		log:     log.Named("checkout"),
	}
}

// PlaceOrder submits the current cart. Local precondition failures are
// returned as errors. A backend refusal or transport failure comes back as
// a Confirmation with Success=false and the cart is left as it was; on
// success the cart is cleared and the confirmation is remembered.
func (s *Service) PlaceOrder(ctx context.Context, form Form) (domain.Confirmation, error) {
	if !s.session.State().Authenticated() {
		return domain.Confirmation{}, ErrNotAuthenticated
	}
	items := s.cart.Snapshot()
	if len(items) == 0 {
		return domain.Confirmation{}, ErrEmptyCart
	}
	if !form.Payment.Valid() {
		return domain.Confirmation{}, ErrInvalidPayment
	}

	shipping := 0.0
	if form.Address.State != "" {
		cost, err := s.QuoteShipping(ctx, form.Address.State)
		if err != nil {
			// shipping stays 0, the backend recomputes it
			s.log.Warn("shipping quote failed", zap.String("op", "quote"), zap.Error(err))
		} else {
			shipping = cost
		}
	}

	customer := form.Customer
	customer.TaxID = domain.DigitsOnly(customer.TaxID)

	req := domain.OrderRequest{
		Items:    items,
		Customer: customer,
		Address:  form.Address,
		Payment:  form.Payment,
		Total:    roundCents(items.Total() + shipping),
	}

	conf, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		s.log.Warn("create order failed", zap.Error(err))
		return domain.Confirmation{Success: false, Message: backend.MessageOf(err, orderFailedMessage)}, nil
	}
	if !conf.Success {
		if conf.Message == "" {
			conf.Message = orderFailedMessage
		}
		return conf, nil
	}

	s.cart.Clear(ctx)

	s.mu.Lock()
	remembered := conf
	s.last = &remembered
	s.mu.Unlock()

	s.log.Info("order placed",
		zap.String("payment_id", conf.PaymentID),
		zap.Float64("total", req.Total))
	return conf, nil
}

// LastConfirmation is the confirmation of the most recent successful order.
func (s *Service) LastConfirmation() (domain.Confirmation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.Confirmation{}, false
	}
	return *s.last, true
}

// QuoteShipping returns the shipping cost for a region (state code).
func (s *Service) QuoteShipping(ctx context.Context, region string) (float64, error) {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return 0, ErrInvalidRegion
	}
	cost, err := s.api.ShippingQuote(ctx, region)
	if err != nil {
		return 0, fmt.Errorf("shipping quote for %s: %w", region, err)
	}
	return cost, nil
}

// LookupAddress resolves a postal code, with or without mask, to address
// fields.
func (s *Service) LookupAddress(ctx context.Context, code string) (domain.Address, error) {
	digits := domain.DigitsOnly(code)
	if len(digits) != 8 {
		return domain.Address{}, ErrInvalidPostalCode
	}
	addr, err := s.api.LookupPostalCode(ctx, digits)
	if err != nil {
		return domain.Address{}, fmt.Errorf("postal lookup for %s: %w", digits, err)
	}
	if addr.PostalCode == "" {
		addr.PostalCode = digits
	}
	return addr, nil
}

// Orders lists the authenticated customer's orders.
func (s *Service) Orders(ctx context.Context) ([]domain.Order, error) {
	if !s.session.State().Authenticated() {
		return nil, ErrNotAuthenticated
	}
	orders, err := s.api.MyOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
