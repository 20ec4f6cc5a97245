package checkauth

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives the auth state plus the refresh trigger on every
// delivery.
type Subscriber func(state State, refresh func())

// Subscription detaches a subscriber. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel satisfies the Subscription interface.
func (s *subscription) Cancel() {
	s.once.Do(s.cancel)
}

type noopSubscription struct{}

func (noopSubscription) Cancel() {}

// Source is the state side of a Checker: anything that reports the current
// auth state, announces transitions, and can re-run the check.
type Source interface {
	Snapshot() State
	Subscribe(fn Subscriber) Subscription
	Refresh()
}

var _ Source = (*Checker)(nil)
var _ Source = (*Distributor)(nil)

// Distributor fans a source's auth state out to consumers. Each consumer
// receives the state plus a refresh trigger; late subscribers are caught up
// immediately. Delivery order between consumers is not guaranteed.
type Distributor struct {
	source Source
	logger Logger

	mu     sync.Mutex
	closed bool
	subs   map[uuid.UUID]Subscriber
	relay  Subscription
}

// DistributorOption configures a Distributor.
type DistributorOption func(*Distributor)

// WithDistributorLogger sets the logger used by the distributor.
func WithDistributorLogger(logger Logger) DistributorOption {
	return func(d *Distributor) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDistributorLoggerProvider resolves the distributor logger from a provider.
func WithDistributorLoggerProvider(provider LoggerProvider) DistributorOption {
	return func(d *Distributor) {
		if provider != nil {
			_, d.logger = ResolveLogger("checkauth.distributor", provider, d.logger)
		}
	}
}

// NewDistributor wraps source and starts relaying its transitions.
func NewDistributor(source Source, opts ...DistributorOption) *Distributor {
	d := &Distributor{
		source: source,
		subs:   map[uuid.UUID]Subscriber{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	if d.logger == nil {
		d.logger = defaultLogger()
	}

	d.relay = source.Subscribe(d.fanout)
	return d
}

// Subscribe registers a consumer. It is caught up with the current snapshot
// right away, then invoked on every transition. Consumers may call refresh
// or Cancel from inside the callback.
func (d *Distributor) Subscribe(fn Subscriber) Subscription {
	if fn == nil {
		return noopSubscription{}
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return noopSubscription{}
	}
	id := uuid.New()
	d.subs[id] = fn
	d.mu.Unlock()

	fn(d.source.Snapshot(), d.source.Refresh)

	return &subscription{cancel: func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}}
}

// Snapshot returns the source's current state.
func (d *Distributor) Snapshot() State {
	return d.source.Snapshot()
}

// Refresh re-runs the source's check.
func (d *Distributor) Refresh() {
	d.source.Refresh()
}

// Consumers returns the number of attached consumers.
func (d *Distributor) Consumers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Close detaches every consumer and stops relaying. Idempotent.
func (d *Distributor) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.subs = map[uuid.UUID]Subscriber{}
	relay := d.relay
	d.mu.Unlock()

	if relay != nil {
		relay.Cancel()
	}

	d.logger.Debug("distributor closed")
	return nil
}

// fanout relays one transition to every consumer outside the distributor
// lock.
func (d *Distributor) fanout(state State, refresh func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	fns := make([]Subscriber, 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(state, refresh)
	}
}
