package buffer

import (
	"sync"

	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/metric"
)

// Option configures a Ring.
type Option func(*ringConfig)

type ringConfig struct {
	registry *metric.MetricsRegistry
	name     string
}

// WithMetrics exports the ring's counters under name. A nil registry or an
// empty name leaves export disabled.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(c *ringConfig) {
		if registry != nil && name != "" {
			c.registry = registry
			c.name = name
		}
	}
}

// Counters is a point-in-time copy of a ring's activity.
type Counters struct {
	Appended int64 `json:"appended"`
	Evicted  int64 `json:"evicted"`
	Peak     int   `json:"peak"`
}

// Ring is a fixed-capacity history that evicts its oldest entry when full.
type Ring[T any] struct {
	mu       sync.RWMutex
	slots    []T
	start    int // index of the oldest entry
	length   int
	counters Counters
	cfg      ringConfig
	metrics  *ringMetrics
	closed   bool
}

// NewRing creates a ring holding up to capacity entries. Capacities below one
// are raised to one. It fails only when metric registration fails.
func NewRing[T any](capacity int, opts ...Option) (*Ring[T], error) {
	if capacity < 1 {
		capacity = 1
	}

	r := &Ring[T]{slots: make([]T, capacity)}
	for _, opt := range opts {
		if opt != nil {
			opt(&r.cfg)
		}
	}

	if r.cfg.registry != nil {
		m, err := newRingMetrics(r.cfg.registry, r.cfg.name)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Ring", "NewRing", "register history metrics")
		}
		r.metrics = m
	}
	return r, nil
}

// Append stores item, evicting the oldest entry when the ring is full.
func (r *Ring[T]) Append(item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.WrapInvalid(errors.ErrProcessingFailed, "Ring", "Append", "ring closed")
	}

	capacity := len(r.slots)
	if r.length == capacity {
		r.slots[r.start] = item
		r.start = (r.start + 1) % capacity
		r.counters.Evicted++
		if r.metrics != nil {
			r.metrics.evicted.Inc()
		}
	} else {
		r.slots[(r.start+r.length)%capacity] = item
		r.length++
	}

	r.counters.Appended++
	if r.length > r.counters.Peak {
		r.counters.Peak = r.length
	}
	if r.metrics != nil {
		r.metrics.appended.Inc()
		r.metrics.observe(r.length, capacity)
	}
	return nil
}

// Last copies up to n of the newest entries, oldest first.
func (r *Ring[T]) Last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.length {
		n = r.length
	}
	if n <= 0 {
		return []T{}
	}

	out := make([]T, n)
	skip := r.length - n
	for i := range out {
		out[i] = r.slots[(r.start+skip+i)%len(r.slots)]
	}
	return out
}

// Snapshot copies every entry, oldest first.
func (r *Ring[T]) Snapshot() []T {
	return r.Last(len(r.slots))
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.length
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.slots)
}

// Reset drops every entry. Counters other than the length are kept.
func (r *Ring[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.slots)
	r.start, r.length = 0, 0
	if r.metrics != nil {
		r.metrics.observe(0, len(r.slots))
	}
}

// Counters returns a copy of the activity counters.
func (r *Ring[T]) Counters() Counters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters
}

// Close rejects further appends and unregisters the ring's metrics.
func (r *Ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.metrics != nil {
		r.metrics.release(r.cfg.registry, r.cfg.name)
		r.metrics = nil
	}
	return nil
}
