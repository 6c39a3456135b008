// Package app constructs the storefront's long-lived components in
// dependency order and disposes of them in reverse.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Storage  storage.Store
	Backend  *backend.Client
	Session  *session.Store
	Cart     *cart.Store
	Checkout *checkout.Service
}

// New wires every component. The session is left unresolved; call Start
// to restore it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	st, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	api := backend.NewClient(backend.Config{
		BaseURL:         cfg.BackendURL,
		Timeout:         cfg.RequestTimeout,
		RateLimit:       cfg.RateLimit,
		BreakerFailures: uint32(max(cfg.BreakerFailures, 0)),
		BreakerCooldown: cfg.BreakerCooldown,
	}, nil, log)

	keys := storage.NewKeys(cfg.KeyPrefix)

	sess := session.NewStore(session.Config{
		API:     api,
		Storage: st,
		Keys:    keys,
		Logger:  log,
		Metrics: collector,
	})

	cartStore := cart.NewStore(cart.Config{
		Remote:        api,
		Session:       sess,
		Storage:       st,
		Keys:          keys,
		Logger:        log,
		Metrics:       collector,
		MirrorTimeout: cfg.MirrorTimeout,
	})

	return &App{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Metrics:  collector,
		Storage:  st,
		Backend:  api,
		Session:  sess,
		Cart:     cartStore,
		Checkout: checkout.NewService(api, cartStore, sess, log),
	}, nil
}

// Start restores the persisted session. The cart loads as a side effect
// of the session resolving.
func (a *App) Start(ctx context.Context) session.State {
	state := a.Session.Restore(ctx)
	a.Logger.Info("session restored", zap.Stringer("resolution", state.Resolution))
	return state
}

// Close waits for pending cart mirror writes, then closes storage.
func (a *App) Close() error {
	a.Cart.Close()
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}

// OpenStorage opens the durable store selected by cfg.StorageDriver.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil
	case config.DriverSQLite:
		st, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return st, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis storage: %w", err)
		}
		return storage.NewRedisStore(client), nil
	default:
		return nil, errors.New("unknown storage driver " + cfg.StorageDriver)
	}
}
