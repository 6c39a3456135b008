// Package web serves the storefront views and a JSON API over the session
// and cart stores. Views are JSON documents; protected ones go through the
// route guard.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/guard"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type SessionStore interface {
	State() session.State
	Login(ctx context.Context, email, secret string) domain.Result
	Register(ctx context.Context, reg domain.Registration) domain.Result
	Logout() session.State
}

type CartStore interface {
	Snapshot() domain.Cart
	Total() float64
	ItemCount() int
	AddItem(ctx context.Context, item domain.CartItem) (domain.Cart, error)
	RemoveItem(ctx context.Context, id string) domain.Cart
	UpdateQuantity(ctx context.Context, id string, n int) domain.Cart
	Clear(ctx context.Context)
}

type Checkout interface {
	PlaceOrder(ctx context.Context, form checkout.Form) (domain.Confirmation, error)
	LastConfirmation() (domain.Confirmation, bool)
	Orders(ctx context.Context) ([]domain.Order, error)
	LookupAddress(ctx context.Context, code string) (domain.Address, error)
	QuoteShipping(ctx context.Context, region string) (float64, error)
}

type Config struct {
	Session  SessionStore
	Cart     CartStore
	Checkout Checkout
	Metrics  guard.DecisionRecorder
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Timeout  time.Duration
}

type Server struct {
	session  SessionStore
	cart     CartStore
	checkout Checkout
	metrics  guard.DecisionRecorder
	gatherer prometheus.Gatherer
	log      *zap.Logger
	timeout  time.Duration
}

func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		session:  cfg.Session,
		cart:     cfg.Cart,
		checkout: cfg.Checkout,
		metrics:  cfg.Metrics,
		gatherer: cfg.Gatherer,
		log:      log.Named("web"),
		timeout:  timeout,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Timeout(s.timeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	protected := guard.Require(s.session, s.metrics, guard.DefaultLoginPath)

	// views
	r.Get("/", s.HomeView)
	r.Get("/login", s.LoginView)
	r.Group(func(r chi.Router) {
		r.Use(protected)
		r.Get("/cart", s.CartView)
		r.Get("/checkout", s.CheckoutView)
		r.Get("/account", s.AccountView)
		r.Get("/confirmation", s.ConfirmationView)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Post("/login", s.Login)
			r.Post("/logout", s.Logout)
			r.Post("/register", s.Register)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.GetCart)
			r.Post("/items", s.AddItem)
			r.Put("/items/{product_id}", s.UpdateQuantity)
			r.Delete("/items/{product_id}", s.RemoveItem)
			r.Delete("/", s.ClearCart)
		})
		r.Route("/utils", func(r chi.Router) {
			r.Get("/cep/{code}", s.LookupPostalCode)
			r.Get("/shipping/{region}", s.QuoteShipping)
		})
		r.Group(func(r chi.Router) {
			r.Use(protected)
			r.Post("/checkout", s.PlaceOrder)
			r.Get("/orders", s.ListOrders)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
