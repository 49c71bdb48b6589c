package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/balanceguard/metric"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

type state int

const (
	idle state = iota
	running
	stopped
)

// Option configures a Pool.
type Option func(*settings)

type settings struct {
	registry *metric.MetricsRegistry
	name     string
}

// WithMetrics exports pool metrics labelled with name. They are released once
// the workers exit after Stop, so the next pool may use the same name.
func WithMetrics(registry *metric.MetricsRegistry, name string) Option {
	return func(s *settings) {
		if registry != nil && name != "" {
			s.registry = registry
			s.name = name
		}
	}
}

// PoolStats is a snapshot of pool activity.
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

// Pool feeds items of type T from a bounded queue to a fixed set of goroutines.
type Pool[T any] struct {
	workers int
	queue   chan T
	handle  func(context.Context, T) error
	cfg     settings
	metrics *poolMetrics

	mu     sync.Mutex
	state  state
	wg     sync.WaitGroup
	cancel context.CancelFunc
	done   chan struct{}

	submitted, processed, failed, dropped atomic.Int64
}

// NewPool builds an idle pool. Non-positive sizes take the defaults. A nil
// handler panics with ErrNilProcessor. The only error is a metric
// registration failure.
func NewPool[T any](workers, queueSize int, handle func(context.Context, T) error, opts ...Option) (*Pool[T], error) {
	if handle == nil {
		panic(ErrNilProcessor)
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &Pool[T]{
		workers: workers,
		queue:   make(chan T, queueSize),
		handle:  handle,
	}
	for _, opt := range opts {
		opt(&p.cfg)
	}

	if p.cfg.registry != nil {
		m, err := newPoolMetrics(p.cfg.registry, p.cfg.name)
		if err != nil {
			return nil, err
		}
		p.metrics = m
	}
	return p, nil
}

// Start launches the workers. Cancelling ctx makes them quit without
// draining the queue.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != idle {
		return ErrPoolAlreadyStarted
	}
	p.state = running

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.run(ctx)
	}
	return nil
}

// Submit enqueues item without blocking.
func (p *Pool[T]) Submit(item T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case idle:
		return ErrPoolNotStarted
	case stopped:
		return ErrPoolStopped
	}

	select {
	case p.queue <- item:
		p.submitted.Add(1)
		p.metrics.enqueued(len(p.queue), cap(p.queue))
		return nil
	default:
		p.dropped.Add(1)
		p.metrics.rejected()
		return ErrQueueFull
	}
}

// Stop closes the queue and waits up to timeout for the workers to finish
// what was already queued. Stopping an idle or stopped pool does nothing.
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != running {
		return nil
	}
	p.state = stopped
	close(p.queue)

	// Metrics are released once the last worker exits, even when Stop has
	// already given up waiting.
	done := make(chan struct{})
	p.done = done
	go func() {
		p.wg.Wait()
		p.metrics.release(p.cfg.registry, p.cfg.name)
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		p.cancel()
		return ErrStopTimeout
	}

	p.cancel()
	return nil
}

// Done is closed after Stop once every worker has exited and the pool's
// metrics are released. It is nil before Stop.
func (p *Pool[T]) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Stats returns current counters.
func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  cap(p.queue),
		QueueDepth: len(p.queue),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

func (p *Pool[T]) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		var (
			item T
			ok   bool
		)
		select {
		case <-ctx.Done():
			return
		case item, ok = <-p.queue:
			if !ok {
				return
			}
		}

		began := time.Now()
		err := p.handle(ctx, item)
		p.processed.Add(1)
		if err != nil {
			p.failed.Add(1)
		}
		p.metrics.handled(err, time.Since(began), len(p.queue), cap(p.queue))
	}
}
