// Package parallel provides the fork-join worker pool used for isolated
// region sub-solves and concurrent assembly.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed-size pool of goroutines executing independent units
// of work.
//
// Units are pulled from one shared queue. Each unit must own its inputs and
// outputs; the pool does not synchronize anything beyond completion.
// Workers can be asked to leave the pool with Retire. A retiring worker
// finishes the unit it is running before it exits; units are never
// interrupted.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	// workers is the number of live worker goroutines.
	workers atomic.Int32

	// queue holds units waiting for a worker.
	queue chan func()

	// retire asks one worker to exit.
	retire chan struct{}

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// mu orders submissions before shutdown so no unit is queued after
	// the workers drained.
	mu sync.RWMutex
}

// NewWorkerPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		queue:  make(chan func(), queueSize),
		retire: make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.running.Store(true)
	p.workers.Store(int32(workers))

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			p.drain()
			return
		case <-p.retire:
			return
		case work := <-p.queue:
			if work != nil {
				work()
			}
		}
	}
}

// drain executes all remaining queued work.
func (p *WorkerPool) drain() {
	for {
		select {
		case work := <-p.queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// Batch is the join handle of a group of submitted units.
type Batch struct {
	wg sync.WaitGroup
}

// Wait blocks until every unit of the batch has completed.
func (b *Batch) Wait() {
	b.wg.Wait()
}

// Go submits every unit and returns the batch join handle without waiting.
// When the pool is closed the units run synchronously on the caller before
// Go returns.
func (p *WorkerPool) Go(work []func()) *Batch {
	b := &Batch{}
	for _, fn := range work {
		if fn == nil {
			continue
		}
		b.wg.Add(1)
		workFn := fn
		wrapped := func() {
			defer b.wg.Done()
			workFn()
		}
		if !p.submit(wrapped) {
			wrapped()
		}
	}
	return b
}

func (p *WorkerPool) submit(fn func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}
	p.queue <- fn
	return true
}

// ExecuteAll runs the first unit on the calling goroutine, dispatches the
// rest to the pool and waits for all of them to complete.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}

	b := p.Go(work[1:])
	if work[0] != nil {
		work[0]()
	}
	b.Wait()
}

// Retire asks one worker to exit once it has finished its current unit.
// The last worker is never retired; Retire reports whether a worker was
// asked to leave.
func (p *WorkerPool) Retire() bool {
	if !p.running.Load() {
		return false
	}
	for {
		n := p.workers.Load()
		if n <= 1 {
			return false
		}
		if p.workers.CompareAndSwap(n, n-1) {
			break
		}
	}
	select {
	case p.retire <- struct{}{}:
		return true
	case <-p.done:
		return false
	}
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of live workers in the pool.
func (p *WorkerPool) Workers() int {
	return int(p.workers.Load())
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// QueuedWork returns the number of units waiting for a worker.
func (p *WorkerPool) QueuedWork() int {
	return len(p.queue)
}
