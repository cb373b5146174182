package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// WorkerPool Creation Tests
// =============================================================================

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}

	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_CreateZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	expected := runtime.GOMAXPROCS(0)
	if pool.Workers() != expected {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), expected)
	}
}

// =============================================================================
// ExecuteAll Tests
// =============================================================================

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	numTasks := 100

	work := make([]func(), numTasks)
	for i := range work {
		work[i] = func() {
			counter.Add(1)
		}
	}

	pool.ExecuteAll(work)

	if counter.Load() != int64(numTasks) {
		t.Errorf("counter = %d, want %d", counter.Load(), numTasks)
	}
}

func TestWorkerPool_ExecuteAll_CallerRunsFirst(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	callerID := goroutineMarker()
	var ranHere atomic.Bool
	work := []func(){
		func() { ranHere.Store(goroutineMarker() == callerID) },
		func() {},
		func() {},
	}
	pool.ExecuteAll(work)

	if !ranHere.Load() {
		t.Error("first unit did not run on the calling goroutine")
	}
}

func TestWorkerPool_ExecuteAll_Empty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	pool.ExecuteAll(nil)
	pool.ExecuteAll([]func(){})
}

func TestWorkerPool_ExecuteAll_Results(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	out := make([]int, 20)
	work := make([]func(), len(out))
	for i := range work {
		work[i] = func() { out[i] = i * i }
	}
	pool.ExecuteAll(work)

	for i, v := range out {
		if v != i*i {
			t.Errorf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
}

// =============================================================================
// Batch Tests
// =============================================================================

func TestWorkerPool_GoWait(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var counter atomic.Int64
	release := make(chan struct{})
	work := []func(){
		func() { <-release; counter.Add(1) },
		func() { <-release; counter.Add(1) },
	}
	b := pool.Go(work)

	if counter.Load() != 0 {
		t.Error("units completed before release")
	}
	close(release)
	b.Wait()

	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2", counter.Load())
	}
}

func TestWorkerPool_GoSkipsNil(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	var counter atomic.Int64
	pool.Go([]func(){nil, func() { counter.Add(1) }, nil}).Wait()

	if counter.Load() != 1 {
		t.Errorf("counter = %d, want 1", counter.Load())
	}
}

// =============================================================================
// Retire Tests
// =============================================================================

func TestWorkerPool_Retire(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	if !pool.Retire() {
		t.Fatal("Retire() = false, want true")
	}
	if pool.Workers() != 2 {
		t.Errorf("Workers() = %d, want 2", pool.Workers())
	}
	if !pool.Retire() {
		t.Fatal("second Retire() = false, want true")
	}
	if pool.Retire() {
		t.Error("Retire() retired the last worker")
	}
	if pool.Workers() != 1 {
		t.Errorf("Workers() = %d, want 1", pool.Workers())
	}

	var counter atomic.Int64
	work := make([]func(), 10)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)
	if counter.Load() != 10 {
		t.Errorf("counter = %d, want 10 after retiring workers", counter.Load())
	}
}

func TestWorkerPool_RetireDoesNotInterrupt(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	started := make(chan struct{})
	var finished atomic.Bool
	b := pool.Go([]func(){func() {
		close(started)
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	}})
	<-started
	pool.Retire()
	b.Wait()

	if !finished.Load() {
		t.Error("running unit was interrupted")
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestWorkerPool_CloseIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
}

func TestWorkerPool_OperationsAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()

	var counter atomic.Int64
	pool.ExecuteAll([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})

	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2 (inline execution after close)", counter.Load())
	}
	if pool.Retire() {
		t.Error("Retire() after Close should be false")
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { counter.Add(1) }
			}
			pool.ExecuteAll(work)
		})
	}
	wg.Wait()

	if counter.Load() != 400 {
		t.Errorf("counter = %d, want 400", counter.Load())
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkWorkerPool_ExecuteAll(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	work := make([]func(), 64)
	for i := range work {
		work[i] = func() {}
	}

	for b.Loop() {
		pool.ExecuteAll(work)
	}
}

// goroutineMarker returns a value unique to the calling goroutine for the
// duration of a test.
func goroutineMarker() string {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	// "goroutine 123 [running]:"
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			return string(buf[:i])
		}
	}
	return string(buf[:n])
}
