package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Test data structure for worker pool tests
type testWork struct {
	id    int
	delay time.Duration
	fail  bool
}

func TestNewPool(t *testing.T) {
	handler := func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	pool := NewPool(5, 100, handler)
	if pool.workers != 5 {
		t.Errorf("Expected 5 workers, got %d", pool.workers)
	}
	if pool.queueSize != 100 {
		t.Errorf("Expected queue size 100, got %d", pool.queueSize)
	}

	// Zero values fall back to defaults
	pool = NewPool(0, 100, handler)
	if pool.workers != defaultWorkers {
		t.Errorf("Expected default %d workers, got %d", defaultWorkers, pool.workers)
	}

	pool = NewPool(5, 0, handler)
	if pool.queueSize != defaultQueueSize {
		t.Errorf("Expected default queue size %d, got %d", defaultQueueSize, pool.queueSize)
	}
}

func TestNewPool_NilHandler(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for nil handler")
		}
	}()
	NewPool[testWork](5, 100, nil)
}

func TestPool_StartStop(t *testing.T) {
	var processedCount int64
	handler := func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(2, 10, handler)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	err = pool.Start(ctx)
	if err == nil {
		t.Error("Expected error when starting pool twice")
	}

	for i := 0; i < 5; i++ {
		err := pool.Submit(testWork{id: i})
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	if processed != 5 {
		t.Errorf("Expected 5 processed items, got %d", processed)
	}

	err = pool.Submit(testWork{id: 999})
	if err == nil {
		t.Error("Expected error when submitting to stopped pool")
	}
}

func TestPool_SingleWorkerPreservesOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int

	handler := func(_ context.Context, work testWork) error {
		mu.Lock()
		order = append(order, work.id)
		mu.Unlock()
		return nil
	}

	pool := NewPool(1, 100, handler)

	ctx := context.Background()
	if err := pool.Start(ctx); err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	for i := 0; i < 50; i++ {
		if err := pool.Submit(testWork{id: i}); err != nil {
			t.Fatalf("Failed to submit work %d: %v", i, err)
		}
	}

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 50 {
		t.Fatalf("Expected 50 processed items, got %d", len(order))
	}
	for i, id := range order {
		if id != i {
			t.Fatalf("Expected item %d at position %d, got %d", i, i, id)
		}
	}
}

func TestPool_QueueFull(t *testing.T) {
	handler := func(_ context.Context, work testWork) error {
		time.Sleep(work.delay)
		return nil
	}

	pool := NewPool(1, 2, handler) // Small queue

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	submitted := 0
	dropped := 0

	for i := 0; i < 5; i++ {
		err := pool.Submit(testWork{
			id:    i,
			delay: 200 * time.Millisecond,
		})
		if err != nil {
			dropped++
		} else {
			submitted++
		}
	}

	if dropped == 0 {
		t.Error("Expected some work to be dropped due to full queue")
	}

	if submitted == 0 {
		t.Error("Expected some work to be submitted successfully")
	}

	stats := pool.Stats()
	if stats.Dropped == 0 {
		t.Error("Stats should show dropped work items")
	}
}

func TestPool_ProcessingErrors(t *testing.T) {
	var successCount, errorCount int64

	handler := func(_ context.Context, work testWork) error {
		if work.fail {
			atomic.AddInt64(&errorCount, 1)
			return errors.New("simulated error")
		}
		atomic.AddInt64(&successCount, 1)
		return nil
	}

	pool := NewPool(2, 10, handler)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	for i := 0; i < 10; i++ {
		work := testWork{
			id:   i,
			fail: i%2 == 0,
		}
		err := pool.Submit(work)
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	success := atomic.LoadInt64(&successCount)
	errCount := atomic.LoadInt64(&errorCount)

	if success != 5 {
		t.Errorf("Expected 5 successful processes, got %d", success)
	}
	if errCount != 5 {
		t.Errorf("Expected 5 failed processes, got %d", errCount)
	}

	stats := pool.Stats()
	if stats.Processed != 10 {
		t.Errorf("Expected 10 processed items in stats, got %d", stats.Processed)
	}
	if stats.Failed != 5 {
		t.Errorf("Expected 5 failed items in stats, got %d", stats.Failed)
	}
}

func TestPool_ContextCancellation(t *testing.T) {
	var processedCount int64

	handler := func(ctx context.Context, work testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(work.delay)
			atomic.AddInt64(&processedCount, 1)
			return nil
		}
	}

	pool := NewPool(2, 10, handler)

	ctx, cancel := context.WithCancel(context.Background())
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	for i := 0; i < 5; i++ {
		err := pool.Submit(testWork{
			id:    i,
			delay: 50 * time.Millisecond,
		})
		if err != nil {
			t.Errorf("Failed to submit work %d: %v", i, err)
		}
	}

	time.Sleep(10 * time.Millisecond)
	cancel()

	err = pool.Stop(5 * time.Second)
	if err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	t.Logf("Processed %d items before cancellation", processed)
}

func TestPool_ConcurrentSubmissions(t *testing.T) {
	var processedCount int64

	handler := func(_ context.Context, _ testWork) error {
		atomic.AddInt64(&processedCount, 1)
		return nil
	}

	pool := NewPool(5, 100, handler)

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}

	var wg sync.WaitGroup
	submitters := 10
	workPerSubmitter := 10

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(submitterID int) {
			defer wg.Done()
			for j := 0; j < workPerSubmitter; j++ {
				work := testWork{
					id: submitterID*workPerSubmitter + j,
				}
				err := pool.Submit(work)
				if err != nil {
					t.Errorf("Submitter %d failed to submit work %d: %v", submitterID, j, err)
				}
			}
		}(i)
	}

	wg.Wait()

	if err := pool.Stop(5 * time.Second); err != nil {
		t.Fatalf("Failed to stop pool: %v", err)
	}

	processed := atomic.LoadInt64(&processedCount)
	expected := int64(submitters * workPerSubmitter)
	if processed != expected {
		t.Errorf("Expected %d processed items, got %d", expected, processed)
	}
}

func TestPool_Stats(t *testing.T) {
	handler := func(ctx context.Context, _ testWork) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return nil
		}
	}

	pool := NewPool(3, 50, handler)

	stats := pool.Stats()
	if stats.Workers != 3 {
		t.Errorf("Expected 3 workers in stats, got %d", stats.Workers)
	}
	if stats.QueueSize != 50 {
		t.Errorf("Expected queue size 50 in stats, got %d", stats.QueueSize)
	}
	if stats.Submitted != 0 {
		t.Errorf("Expected 0 submitted initially, got %d", stats.Submitted)
	}

	ctx := context.Background()
	err := pool.Start(ctx)
	if err != nil {
		t.Fatalf("Failed to start pool: %v", err)
	}
	defer pool.Stop(5 * time.Second)

	for i := 0; i < 10; i++ {
		_ = pool.Submit(testWork{id: i})
	}

	time.Sleep(50 * time.Millisecond)
	stats = pool.Stats()

	if stats.Submitted != 10 {
		t.Errorf("Expected 10 submitted in stats, got %d", stats.Submitted)
	}

	if stats.Processed <= 0 || stats.Processed > stats.Submitted {
		t.Errorf("Invalid processed count in stats: %d (submitted: %d)", stats.Processed, stats.Submitted)
	}
}
