package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// MockAPI implements API for testing
type MockAPI struct {
	mu sync.RWMutex

	Confirmation domain.Confirmation
	CreateErr    error
	Created      []domain.OrderRequest

	OrderList []domain.Order
	OrdersErr error

	Address   domain.Address
	LookupErr error
	Looked    []string

	Shipping    float64
	ShippingErr error
	Regions     []string
}

func (m *MockAPI) CreateOrder(_ context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, req)
	return m.Confirmation, m.CreateErr
}

func (m *MockAPI) MyOrders(_ context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.OrderList, m.OrdersErr
}

func (m *MockAPI) LookupPostalCode(_ context.Context, code string) (domain.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Looked = append(m.Looked, code)
	return m.Address, m.LookupErr
}

func (m *MockAPI) ShippingQuote(_ context.Context, region string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Regions = append(m.Regions, region)
	return m.Shipping, m.ShippingErr
}

// MockCart implements Cart for testing
type MockCart struct {
	mu      sync.RWMutex
	Items   domain.Cart
	Cleared int
}

func (m *MockCart) Snapshot() domain.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Items.Clone()
}

func (m *MockCart) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = domain.Cart{}
	m.Cleared++
}

type MockSession struct {
	state session.State
}

func (m MockSession) State() session.State { return m.state }

var (
	signedIn  = MockSession{state: session.State{Resolution: session.Authenticated, Token: "t1", Identity: &domain.Identity{ID: "u1"}}}
	signedOut = MockSession{state: session.State{Resolution: session.Anonymous}}
)
