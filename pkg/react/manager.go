package react

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	logpkg "github.com/rzbill/modeldb/pkg/log"
)

// Subscription is the cancellation handle of one registered listener.
type Subscription struct {
	id       uuid.UUID
	listener Listener
	mgr      *Manager
	closed   atomic.Bool
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Listener returns the subscribed listener.
func (s *Subscription) Listener() Listener { return s.listener }

// Closed reports whether Close has been called.
func (s *Subscription) Closed() bool { return s.closed.Load() }

// Close unsubscribes the listener. It is idempotent and may be called from
// inside the listener's own callbacks: the phase currently being delivered
// is unaffected and the listener receives nothing afterwards.
func (s *Subscription) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mgr.remove(s)
	return nil
}

// Manager keeps the ordered, de-duplicated set of subscriptions.
//
// The subscription slice is copy-on-write: Register and Close publish a new
// slice and never touch one already handed out by Snapshot, so a dispatch
// can iterate its snapshot while listeners subscribe or unsubscribe.
type Manager struct {
	mu     sync.Mutex
	subs   []*Subscription
	logger logpkg.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l logpkg.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{}
	for _, o := range opts {
		o(m)
	}
	if m.logger == nil {
		m.logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	return m
}

// Register subscribes l. Registering a listener that is already subscribed
// returns its existing subscription and has no other effect; otherwise
// l.SetSubscription is called with the new handle before Register returns.
func (m *Manager) Register(l Listener) *Subscription {
	if l == nil {
		panic("react: Register with nil listener")
	}
	m.mu.Lock()
	for _, s := range m.subs {
		if sameListener(s.listener, l) {
			m.mu.Unlock()
			return s
		}
	}
	sub := &Subscription{id: uuid.New(), listener: l, mgr: m}
	next := make([]*Subscription, len(m.subs), len(m.subs)+1)
	copy(next, m.subs)
	m.subs = append(next, sub)
	m.mu.Unlock()

	m.logger.Debug("listener registered", logpkg.Str("subscription", sub.id.String()))
	l.SetSubscription(sub)
	return sub
}

// Unregister closes sub. It is equivalent to sub.Close.
func (m *Manager) Unregister(sub *Subscription) {
	if sub != nil {
		_ = sub.Close()
	}
}

func (m *Manager) remove(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s != sub {
			continue
		}
		next := make([]*Subscription, 0, len(m.subs)-1)
		next = append(next, m.subs[:i]...)
		m.subs = append(next, m.subs[i+1:]...)
		m.logger.Debug("listener unregistered", logpkg.Str("subscription", sub.id.String()))
		return
	}
}

// Snapshot returns the subscriptions in registration order. The returned
// slice is never modified and must not be modified by the caller.
func (m *Manager) Snapshot() []*Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs
}

// Len returns the number of active subscriptions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// sameListener compares by identity. Values of non-comparable dynamic types
// are never considered the same, since == would panic on them.
func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
