// Package worker provides a generic, bounded worker pool.
//
// A Pool runs a fixed number of goroutines that take work items of type T from
// a bounded queue. Submit never blocks: a full queue returns ErrQueueFull.
// Stop closes the queue and waits for the queued items to finish, which makes
// the pool usable for fan-out batches:
//
//	pool, err := worker.NewPool[job](4, len(jobs), process)
//	if err != nil {
//		return err
//	}
//	if err := pool.Start(ctx); err != nil {
//		return err
//	}
//	for _, j := range jobs {
//		_ = pool.Submit(j)
//	}
//	err = pool.Stop(30 * time.Second)
//
// Statistics are always tracked (Stats). Prometheus metrics are registered only
// with WithMetrics and are removed again when the pool stops.
package worker
