package worker

import "errors"

// Lifecycle errors returned by Pool.
var (
	ErrPoolNotStarted     = errors.New("worker: pool has not been started")
	ErrPoolAlreadyStarted = errors.New("worker: pool is already running")
	ErrPoolStopped        = errors.New("worker: pool is stopped")
	ErrStopTimeout        = errors.New("worker: workers still busy at stop deadline")
)

// ErrQueueFull is returned by Submit when every queue slot is taken.
var ErrQueueFull = errors.New("worker: queue full")

// ErrNilProcessor is the panic value of NewPool when given no processor.
var ErrNilProcessor = errors.New("worker: nil processor")
