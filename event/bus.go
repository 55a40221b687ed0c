package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fences/IcpDasDaqCore/metric"
	"github.com/fences/IcpDasDaqCore/pkg/worker"
)

const (
	defaultQueueSize = 128
	stopTimeout      = 2 * time.Second
)

// subscription pairs a handler's delivery pool with its kind filter.
type subscription struct {
	id    string
	kinds map[Kind]struct{} // nil matches every kind
	pool  *worker.Pool[Event]
}

func (s *subscription) matches(k Kind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[k]
	return ok
}

// Bus fans events out to subscribers. Every subscription owns a
// single-worker delivery pool with a bounded queue, so per-subscriber
// ordering is preserved and a full queue drops events instead of blocking
// the publisher.
type Bus struct {
	logger    *slog.Logger
	metrics   *metric.Metrics
	queueSize int

	mu     sync.RWMutex
	subs   map[string]*subscription
	closed bool
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithMetrics wires the published/dropped counters and subscriber gauge.
func WithMetrics(m *metric.Metrics) BusOption {
	return func(b *Bus) {
		b.metrics = m
	}
}

// WithQueueSize overrides the per-subscription queue depth.
func WithQueueSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// NewBus creates an event bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger, opts ...BusOption) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger:    logger.With("component", "event-bus"),
		queueSize: defaultQueueSize,
		subs:      make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler and returns its subscription id. An empty
// kinds list subscribes to every kind. The handler runs on the
// subscription's own goroutine; it must not be nil.
func (b *Bus) Subscribe(handler func(Event), kinds ...Kind) string {
	if handler == nil {
		return ""
	}

	id := uuid.NewString()

	var filter map[Kind]struct{}
	if len(kinds) > 0 {
		filter = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			filter[k] = struct{}{}
		}
	}

	pool := worker.NewPool(1, b.queueSize, func(_ context.Context, evt Event) error {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("event handler panicked",
					"subscription", id,
					"kind", evt.Kind(),
					"panic", r)
			}
		}()
		handler(evt)
		return nil
	})

	if err := pool.Start(context.Background()); err != nil {
		b.logger.Error("subscription pool failed to start", "error", err)
		return ""
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = pool.Stop(stopTimeout)
		return ""
	}
	b.subs[id] = &subscription{id: id, kinds: filter, pool: pool}
	count := len(b.subs)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordSubscribers(count)
	}
	return id
}

// Unsubscribe removes a subscription and stops its delivery pool, draining
// whatever is already queued. Unknown ids are a no-op.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	count := len(b.subs)
	b.mu.Unlock()

	if !ok {
		return
	}

	if err := sub.pool.Stop(stopTimeout); err != nil {
		b.logger.Warn("subscription pool did not drain in time",
			"subscription", id, "error", err)
	}
	if b.metrics != nil {
		b.metrics.RecordSubscribers(count)
	}
}

// Publish delivers an event to every matching subscription without ever
// blocking: full subscriber queues drop the event for that subscriber.
func (b *Bus) Publish(evt Event) {
	kind := evt.Kind()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.matches(kind) {
			continue
		}
		if err := sub.pool.Submit(evt); err != nil {
			if b.metrics != nil {
				b.metrics.RecordEventDropped(string(kind))
			}
			b.logger.Debug("event dropped",
				"subscription", sub.id,
				"kind", kind,
				"error", err)
		}
	}

	if b.metrics != nil {
		b.metrics.RecordEventPublished(string(kind))
	}
}

// Close stops every subscription. Publishing and subscribing after Close
// are no-ops. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[string]*subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		if err := sub.pool.Stop(stopTimeout); err != nil {
			b.logger.Warn("subscription pool did not drain in time",
				"subscription", sub.id, "error", err)
		}
	}
	if b.metrics != nil {
		b.metrics.RecordSubscribers(0)
	}
}

// Subscribers returns the current subscription count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
