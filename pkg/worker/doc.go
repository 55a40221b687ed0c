// Package worker provides a generic, thread-safe worker pool for concurrent
// task processing.
//
// The pool manages a fixed number of goroutines that drain work items of any
// type T from a bounded queue. Submit is non-blocking: when the queue is at
// capacity the item is dropped and ErrQueueFull is returned, so a slow
// consumer can never stall a producer. This is the delivery backbone of the
// event layer, where each subscription owns a single-worker pool (preserving
// per-subscriber ordering) and publishers treat ErrQueueFull as a dropped
// event.
//
// Basic usage:
//
//	pool := worker.NewPool(1, 128, func(ctx context.Context, e event.Event) error {
//	    handler(e)
//	    return nil
//	})
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(2 * time.Second)
//
//	if err := pool.Submit(evt); errors.Is(err, worker.ErrQueueFull) {
//	    // subscriber is behind; the event is gone
//	}
//
// Statistics are always tracked atomically and available through Stats().
// Prometheus metrics are opt-in via WithMetricsRegistry:
//
//	pool := worker.NewPool(4, 256, process,
//	    worker.WithMetricsRegistry[Sample](registry, "sample_dispatch"),
//	)
//
// Stop closes the queue, lets workers finish what is already queued, and
// waits up to the given timeout before giving up with ErrStopTimeout.
// Cancelling the context passed to Start makes workers exit without
// draining.
package worker
