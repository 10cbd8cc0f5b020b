// Package workerpool provides a bounded worker pool for I/O-bound,
// file-granularity tasks. It generalizes the teacher's fixed fan-out
// SIMD-style worker array (one broadcast workload per call, sized to a
// fixed array of goroutines) into a task-queue model sized by a caller
// supplied worker count, since classifier and batch workloads submit a
// variable, often large, number of independent tasks rather than one
// broadcast workload (see DESIGN.md for why the original array type was
// not carried forward as-is).
package workerpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/caoforge/capack/pkg/contextutil"
)

// Run fans indices out across workers goroutines, invoking fn for each one,
// and blocks until every index has been processed. If workers is zero or
// negative, the number of CPUs is used. Workers observe cancellation of ctx
// between items: a worker drains (skips) any index it dequeues after
// cancellation rather than invoking fn for it, so in-flight calls to fn are
// allowed to finish but no new ones start.
//
// Run returns the first non-nil error returned by fn, if any. Per-item
// errors that the caller wants to accumulate rather than treat as fatal
// (e.g. Classifier's per-file hash errors) should be recorded by fn itself
// via a single-coordinator accumulator, not returned through Run.
func Run(ctx context.Context, workers int, indices []int, fn func(ctx context.Context, index int) error) error {
	if workers < 1 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	if workers > len(indices) {
		workers = len(indices)
	}
	if workers < 1 {
		return nil
	}

	work := make(chan int)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range work {
				if contextutil.IsCancelled(ctx) {
					continue
				}
				if err := fn(ctx, index); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}()
	}

	for _, index := range indices {
		work <- index
	}
	close(work)
	wg.Wait()
	close(errs)

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
