// Package session holds the authentication credential and identity of the
// running storefront, persists them across restarts and notifies
// dependents when they change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/observe"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLoginFailure    = "login failed"
	defaultRegisterFailure = "registration failed"

	// local clears must not hang logout on a slow storage driver
	clearTimeout = 2 * time.Second
)

// Backend is the part of the REST client the session needs.
type Backend interface {
	Me(ctx context.Context) (domain.Identity, error)
	Login(ctx context.Context, email, secret string) (backend.LoginResponse, error)
	Register(ctx context.Context, reg domain.Registration) (domain.Result, error)
	SetToken(token string)
}

// TransitionRecorder receives every resolution change.
type TransitionRecorder interface {
	RecordSessionTransition(from, to string)
}

type Config struct {
	API     Backend
	Storage storage.Store
	Keys    storage.Keys
	Logger  *zap.Logger
	Metrics TransitionRecorder
}

type Store struct {
	api     Backend
	storage storage.Store
	keys    storage.Keys
	log     *zap.Logger
	metrics TransitionRecorder

	sfg singleflight.Group // concurrent Restore calls share one identity fetch

	mu    sync.RWMutex
	state State
	feed  observe.Feed[State]
}

func NewStore(cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		api:     cfg.API,
		storage: cfg.Storage,
		keys:    cfg.Keys,
		log:     log.Named("session"),
		metrics: cfg.Metrics,
		state:   State{Resolution: Unresolved},
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.feed.Subscribe(fn)
}

// Restore validates the persisted token, if any, against the backend. Any
// failure discards the persisted token and identity; the session then
// resolves anonymous. It never returns an error.
func (s *Store) Restore(ctx context.Context) State {
	v, _, _ := s.sfg.Do("restore", func() (interface{}, error) {
		return s.restore(ctx), nil
	})
	return v.(State)
}

func (s *Store) restore(ctx context.Context) State {
	token, err := s.storage.Get(ctx, s.keys.Token)
	if err != nil || len(token) == 0 {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("read persisted token failed", zap.String("op", "restore"), zap.Error(err))
		}
		s.clearPersisted(ctx)
		return s.setState(State{Resolution: Anonymous})
	}

	s.api.SetToken(string(token))
	identity, err := s.api.Me(ctx)
	if err != nil {
		s.log.Info("persisted token rejected, continuing anonymous", zap.Error(err))
		s.clearPersisted(ctx)
		return s.setState(State{Resolution: Anonymous})
	}

	s.persistIdentity(ctx, identity)
	return s.setState(State{
		Resolution: Authenticated,
		Token:      string(token),
		Identity:   &identity,
	})
}

// Login exchanges credentials for a session. On failure the existing
// session is left untouched.
func (s *Store) Login(ctx context.Context, email, secret string) domain.Result {
	resp, err := s.api.Login(ctx, email, secret)
	if err != nil {
		s.log.Info("login request failed", zap.Error(err))
		return domain.Failed(backend.MessageOf(err, defaultLoginFailure))
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = defaultLoginFailure
		}
		return domain.Failed(msg)
	}
	if resp.Token == "" || resp.User == nil {
		s.log.Warn("login succeeded without token or identity", zap.Bool("has_token", resp.Token != ""))
		return domain.Failed(defaultLoginFailure)
	}

	if err := s.storage.Set(ctx, s.keys.Token, []byte(resp.Token)); err != nil {
		s.log.Warn("persist token failed", zap.String("op", "login"), zap.Error(err))
	}
	identity := *resp.User
	s.persistIdentity(ctx, identity)

	s.setState(State{
		Resolution: Authenticated,
		Token:      resp.Token,
		Identity:   &identity,
	})
	return domain.Succeeded(resp.Message)
}

// Register creates an account; the session is unchanged.
func (s *Store) Register(ctx context.Context, reg domain.Registration) domain.Result {
	res, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.Info("register request failed", zap.Error(err))
		return domain.Failed(backend.MessageOf(err, defaultRegisterFailure))
	}
	if !res.Success && res.Message == "" {
		res.Message = defaultRegisterFailure
	}
	return res
}

// Logout clears the credential, the identity and the durable cart
// snapshot, then resolves anonymous. It performs no network call.
func (s *Store) Logout() State {
	ctx, cancel := context.WithTimeout(context.Background(), clearTimeout)
	defer cancel()

	s.clearPersisted(ctx)
	if err := s.storage.Delete(ctx, s.keys.Cart); err != nil {
		s.log.Warn("clear persisted cart failed", zap.String("op", "logout"), zap.Error(err))
	}
	return s.setState(State{Resolution: Anonymous})
}

func (s *Store) persistIdentity(ctx context.Context, identity domain.Identity) {
	data, err := json.Marshal(identity)
	if err != nil {
		s.log.Warn("marshal identity failed", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, s.keys.Identity, data); err != nil {
		s.log.Warn("persist identity failed", zap.Error(err))
	}
}

func (s *Store) clearPersisted(ctx context.Context) {
	for _, key := range []string{s.keys.Token, s.keys.Identity} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn("clear persisted session failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// setState swaps the snapshot, re-derives the outgoing credential and
// notifies subscribers outside the lock.
func (s *Store) setState(next State) State {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	s.api.SetToken(next.Token)
	if s.metrics != nil && prev.Resolution != next.Resolution {
		s.metrics.RecordSessionTransition(prev.Resolution.String(), next.Resolution.String())
	}
	s.log.Debug("session state changed",
		zap.Stringer("from", prev.Resolution),
		zap.Stringer("to", next.Resolution))

	s.feed.Publish(next)
	return next
}
