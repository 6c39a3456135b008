// Package cart owns the shopping cart: the ordered line items, their local
// durable snapshot and, while a session is authenticated, the remote
// mirror. The session decides which copy is the source of truth.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/observe"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

var ErrInvalidItem = errors.New("cart item needs an id and a non-negative price")

const defaultMirrorTimeout = 5 * time.Second

// Remote is the server-side copy of the cart.
type Remote interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	ClearCart(ctx context.Context) error
}

// Session is the view of the session store the cart depends on.
type Session interface {
	State() session.State
	Subscribe(fn func(session.State)) func()
}

// MirrorRecorder receives the outcome of every remote cart call.
type MirrorRecorder interface {
	RecordMirror(op string, err error)
}

type Config struct {
	Remote        Remote
	Session       Session
	Storage       storage.Store
	Keys          storage.Keys
	Logger        *zap.Logger
	Metrics       MirrorRecorder
	MirrorTimeout time.Duration
}

// sessionKey identifies a source of truth: a new token is a new account
// even when the resolution stays authenticated.
type sessionKey struct {
	resolution session.Resolution
	token      string
}

type Store struct {
	remote  Remote
	session Session
	storage storage.Store
	keys    storage.Keys
	log     *zap.Logger
	metrics MirrorRecorder
	timeout time.Duration
	mirror  *mirror

	mu          sync.Mutex
	items       domain.Cart
	generation  uint64 // bumped by every Load and mutation
	lastSession sessionKey

	feed        observe.Feed[domain.Cart]
	unsubscribe func()
}

// NewStore builds the cart and subscribes it to session changes. The cart
// starts empty; it loads on the first resolved session state.
func NewStore(cfg Config) *Store {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("cart")
	timeout := cfg.MirrorTimeout
	if timeout <= 0 {
		timeout = defaultMirrorTimeout
	}

	s := &Store{
		remote:  cfg.Remote,
		session: cfg.Session,
		storage: cfg.Storage,
		keys:    cfg.Keys,
		log:     log,
		metrics: cfg.Metrics,
		timeout: timeout,
		items:   domain.Cart{},
		mirror: &mirror{
			remote:  cfg.Remote,
			session: cfg.Session,
			timeout: timeout,
			log:     log,
			metrics: cfg.Metrics,
		},
	}
	s.unsubscribe = cfg.Session.Subscribe(s.onSession)
	return s
}

// onSession reloads whenever the source of truth changes.
func (s *Store) onSession(state session.State) {
	if !state.Resolved() {
		return
	}
	key := sessionKey{resolution: state.Resolution, token: state.Token}

	s.mu.Lock()
	if key == s.lastSession {
		s.mu.Unlock()
		return
	}
	s.lastSession = key
	s.mu.Unlock()

	s.Load(context.Background())
}

// Load replaces the cart from its source of truth. Authenticated sessions
// read the remote mirror and fall back to the local snapshot when the
// fetch fails; anonymous sessions read the local snapshot. The pre-login
// anonymous cart is never merged in. A result that arrives after a newer
// Load or mutation started is discarded.
func (s *Store) Load(ctx context.Context) domain.Cart {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	if s.session.State().Authenticated() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		remote, err := s.remote.GetCart(fetchCtx)
		cancel()
		s.mirror.record(opFetch, err)
		if err == nil {
			return s.apply(ctx, gen, remote.Normalize(), true)
		}
		s.log.Warn("remote cart fetch failed, using local snapshot",
			zap.String("op", string(opFetch)),
			zap.Error(err))
	}

	readCtx, cancel := s.localContext(ctx)
	defer cancel()
	return s.apply(ctx, gen, s.readLocal(readCtx), false)
}

// localContext gives storage access after a remote fetch its own deadline;
// the fetch may have used up the caller's.
func (s *Store) localContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

func (s *Store) apply(ctx context.Context, gen uint64, items domain.Cart, persist bool) domain.Cart {
	s.mu.Lock()
	if gen != s.generation {
		current := s.items.Clone()
		s.mu.Unlock()
		s.log.Debug("discarding stale cart load", zap.Uint64("generation", gen))
		return current
	}
	s.items = items
	if persist {
		writeCtx, cancel := s.localContext(ctx)
		s.writeLocal(writeCtx, items)
		cancel()
	}
	snapshot := items.Clone()
	s.mu.Unlock()

	s.feed.Publish(snapshot)
	return snapshot
}

// AddItem appends item, or increments the quantity of the line with the
// same id. A non-positive quantity counts as 1.
func (s *Store) AddItem(ctx context.Context, item domain.CartItem) (domain.Cart, error) {
	if item.ID == "" || item.Price < 0 {
		return s.Snapshot(), ErrInvalidItem
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	return s.mutate(ctx, func(items domain.Cart) domain.Cart {
		if idx := items.IndexOf(item.ID); idx >= 0 {
			items[idx].Quantity += item.Quantity
			return items
		}
		return append(items, item)
	}), nil
}

// RemoveItem drops the line with the given id; absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id string) domain.Cart {
	return s.mutate(ctx, func(items domain.Cart) domain.Cart {
		out := items[:0]
		for _, item := range items {
			if item.ID != id {
				out = append(out, item)
			}
		}
		return out
	})
}

// UpdateQuantity sets the quantity of a line; n <= 0 removes it. Absent
// ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, id string, n int) domain.Cart {
	if n <= 0 {
		return s.RemoveItem(ctx, id)
	}
	return s.mutate(ctx, func(items domain.Cart) domain.Cart {
		if idx := items.IndexOf(id); idx >= 0 {
			items[idx].Quantity = n
		}
		return items
	})
}

// mutate applies fn to a private copy, persists the result locally and,
// when authenticated, hands a snapshot to the mirror.
func (s *Store) mutate(ctx context.Context, fn func(domain.Cart) domain.Cart) domain.Cart {
	s.mu.Lock()
	next := fn(s.items.Clone())
	s.items = next
	s.generation++
	seq := s.generation
	s.writeLocal(ctx, next)
	snapshot := next.Clone()
	state := s.session.State()
	s.mu.Unlock()

	if state.Authenticated() {
		s.mirror.push(seq, state.Token, opSave, snapshot.Clone())
	}
	s.feed.Publish(snapshot)
	return snapshot
}

// Clear empties the cart, removes the local snapshot and, when
// authenticated, clears the remote mirror on a best-effort basis.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = domain.Cart{}
	s.generation++
	seq := s.generation
	if err := s.storage.Delete(ctx, s.keys.Cart); err != nil {
		s.log.Warn("clear local cart failed", zap.Error(err))
	}
	state := s.session.State()
	s.mu.Unlock()

	if state.Authenticated() {
		s.mirror.push(seq, state.Token, opClear, nil)
	}
	s.feed.Publish(domain.Cart{})
}

// Snapshot returns a copy of the current lines.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Total is the sum of price x quantity.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Total()
}

// ItemCount is the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.ItemCount()
}

// Subscribe registers fn for every cart change.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
	return s.feed.Subscribe(fn)
}

// Flush waits for pending mirror writes.
func (s *Store) Flush() {
	s.mirror.wait()
}

// Close detaches from the session and waits for pending mirror writes.
func (s *Store) Close() {
	s.unsubscribe()
	s.mirror.wait()
}

// readLocal returns the durable snapshot; missing or malformed content is
// an empty cart.
func (s *Store) readLocal(ctx context.Context) domain.Cart {
	data, err := s.storage.Get(ctx, s.keys.Cart)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Cart{}
	}
	if err != nil {
		s.log.Warn("read local cart failed", zap.Error(err))
		return domain.Cart{}
	}

	var items domain.Cart
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("discarding malformed local cart", zap.Error(err))
		return domain.Cart{}
	}
	return items.Normalize()
}

// writeLocal must be called with s.mu held so storage order matches
// mutation order.
func (s *Store) writeLocal(ctx context.Context, items domain.Cart) {
	data, err := json.Marshal(items.Clone())
	if err != nil {
		s.log.Warn("marshal cart failed", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, s.keys.Cart, data); err != nil {
		s.log.Warn("write local cart failed", zap.Error(err))
	}
}
