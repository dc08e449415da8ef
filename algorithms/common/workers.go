package common

import (
	"runtime"
	"sync"
)

// ParallelFor calls fn(i) for every i in [0, n) on a bounded pool of workers.
// workers <= 0 picks a count from the workload size. fn must only write to
// state owned by index i; callers reduce the per-index results afterwards in
// index order, which keeps the outcome independent of scheduling.
func ParallelFor(n, workers int, fn func(i int)) {
	if n <= 0 {
		return
	}

	if workers <= 0 {
		workers = OptimalWorkerCount(n)
	}
	workers = max(1, min(workers, n))

	if workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	jobs := make(chan int, n)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := range n {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
}

// OptimalWorkerCount determines the number of workers based on workload
func OptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
