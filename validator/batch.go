package validator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360/balanceguard/errors"
	"github.com/c360/balanceguard/pkg/worker"
	"github.com/c360/balanceguard/result"
)

// DefaultBatchTimeout bounds how long ValidateBatch waits for its workers.
const DefaultBatchTimeout = 30 * time.Second

// BatchOptions tunes ValidateBatch.
type BatchOptions struct {
	Workers int           // 0 uses the pool default
	Timeout time.Duration // 0 uses DefaultBatchTimeout
}

type batchItem struct {
	index int
	req   Request
}

// batchResults collects worker output until it is sealed. Workers that finish
// after the batch gave up find it sealed and discard their result.
type batchResults struct {
	mu     sync.Mutex
	items  []*result.ProcessedResult
	sealed bool
}

func (b *batchResults) set(index int, res *result.ProcessedResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.sealed {
		b.items[index] = res
	}
}

func (b *batchResults) seal() []*result.ProcessedResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	return b.items
}

// ValidateBatch validates independent requests concurrently. Results keep the
// order of reqs. A request that did not finish before the timeout or context
// cancellation has a nil result and the returned error is set. Workers still
// running after a timeout never write to the returned slice.
func (v *Validator) ValidateBatch(ctx context.Context, reqs []Request, opts BatchOptions) ([]*result.ProcessedResult, error) {
	ctx, span := v.tracer.Start(ctx, "validator.ValidateBatch",
		trace.WithAttributes(attribute.Int("requests", len(reqs))))
	defer span.End()

	if len(reqs) == 0 {
		return []*result.ProcessedResult{}, nil
	}
	results := &batchResults{items: make([]*result.ProcessedResult, len(reqs))}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBatchTimeout
	}

	process := func(ctx context.Context, item batchItem) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		results.set(item.index, v.Validate(ctx, item.req))
		return nil
	}

	pool, err := worker.NewPool(opts.Workers, len(reqs), process,
		worker.WithMetrics(v.metricsRegistry, "validator_batch"))
	if err != nil {
		// A concurrent batch holds the metric names
		v.logger.Warn("Batch metrics unavailable", "error", err)
		if pool, err = worker.NewPool(opts.Workers, len(reqs), process); err != nil {
			return results.seal(), errors.Wrap(err, "Validator", "ValidateBatch", "create worker pool")
		}
	}

	if err := pool.Start(ctx); err != nil {
		return results.seal(), errors.Wrap(err, "Validator", "ValidateBatch", "start worker pool")
	}
	for i, req := range reqs {
		if err := pool.Submit(batchItem{index: i, req: req}); err != nil {
			_ = pool.Stop(opts.Timeout)
			return results.seal(), errors.Wrap(err, "Validator", "ValidateBatch", "submit request")
		}
	}
	if err := pool.Stop(opts.Timeout); err != nil {
		span.SetStatus(codes.Error, "batch timed out")
		return results.seal(), errors.WrapTransient(err, "Validator", "ValidateBatch", "wait for workers")
	}

	out := results.seal()
	stats := pool.Stats()
	span.SetAttributes(
		attribute.Int64("processed", stats.Processed),
		attribute.Int64("failed", stats.Failed),
	)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "batch cancelled")
		return out, errors.WrapTransient(err, "Validator", "ValidateBatch", "validate requests")
	}
	return out, nil
}
