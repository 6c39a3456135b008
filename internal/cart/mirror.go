package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.uber.org/zap"
)

type mirrorOp string

const (
	opFetch mirrorOp = "fetch"
	opSave  mirrorOp = "save"
	opClear mirrorOp = "clear"
)

// mirror pushes local cart changes to the remote copy. Each change runs in
// its own goroutine and only its log line and metric observe the outcome:
// local state is authoritative and is never rolled back. Deliveries are
// serialized and a change older than the last delivered one is dropped, so
// a slow early write cannot overwrite a later one. A change belongs to the
// session token it was made under: it is dropped once the session has
// moved on and is otherwise sent with that token bound to the request.
type mirror struct {
	remote  Remote
	session Session
	timeout time.Duration
	log     *zap.Logger
	metrics MirrorRecorder

	wg        sync.WaitGroup
	mu        sync.Mutex
	delivered uint64
}

func (m *mirror) push(seq uint64, token string, op mirrorOp, snapshot domain.Cart) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.deliver(seq, token, op, snapshot)
	}()
}

func (m *mirror) deliver(seq uint64, token string, op mirrorOp, snapshot domain.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current := m.session.State(); !current.Authenticated() || current.Token != token {
		m.log.Debug("dropping mirror write from a previous session",
			zap.String("op", string(op)),
			zap.Uint64("seq", seq))
		return
	}

	if seq <= m.delivered {
		m.log.Debug("skipping superseded mirror write",
			zap.String("op", string(op)),
			zap.Uint64("seq", seq),
			zap.Uint64("delivered", m.delivered))
		return
	}
	m.delivered = seq

	ctx, cancel := context.WithTimeout(backend.WithToken(context.Background(), token), m.timeout)
	defer cancel()

	var err error
	switch op {
	case opSave:
		err = m.remote.SaveCart(ctx, snapshot)
	case opClear:
		err = m.remote.ClearCart(ctx)
	}
	m.record(op, err)
	if err != nil {
		m.log.Warn("remote cart write failed, keeping local state",
			zap.String("op", string(op)),
			zap.Uint64("seq", seq),
			zap.Error(err))
	}
}

func (m *mirror) record(op mirrorOp, err error) {
	if m.metrics != nil {
		m.metrics.RecordMirror(string(op), err)
	}
}

// wait blocks until every pushed change has been delivered or dropped.
func (m *mirror) wait() {
	m.wg.Wait()
}
