package propagation

import (
	"log/slog"
	"sync"
)

// WorkerPool splits index ranges across a fixed number of goroutines.
//
// Callers must only touch state owned by the indices they are handed; the
// pool provides no synchronization beyond joining all workers before Run
// returns.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
// Fewer than one worker is treated as one.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Run calls fn for every index in [0, n) and returns once all calls are done.
// With a single worker, or when there is less than one index per worker,
// everything runs on the calling goroutine.
func (wp *WorkerPool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	if wp.workers == 1 || n < wp.workers {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + wp.workers - 1) / wp.workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(lo, hi)
	}
	wg.Wait()

	wp.logger.Debug("worker pool batch complete", "items", n, "workers", wp.workers, "chunk", chunk)
}
