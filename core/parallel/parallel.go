// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// NumChunks is the number of chunks ParallelizeChunks splits [0, n) into.
func NumChunks(n, chunk int) int {
	if n <= 0 {
		return 0
	}
	return (n + chunk - 1) / chunk
}

// ParallelizeChunks splits [0, n) into consecutive chunks of at most chunk
// indices and calls fn(idx, start, end) for each, using at most GOMAXPROCS
// goroutines. The layout depends only on n and chunk, so per-chunk results
// indexed by idx can be reduced in a fixed order.
func ParallelizeChunks(n, chunk int, fn func(idx, start, end int)) {
	if chunk < 1 {
		panic("parallel: chunk size must be positive")
	}
	count := NumChunks(n, chunk)
	if count == 0 {
		return
	}
	run := func(idx int) {
		start := idx * chunk
		fn(idx, start, min(start+chunk, n))
	}

	workers := min(runtime.GOMAXPROCS(0), count)
	if workers <= 1 {
		for idx := 0; idx < count; idx++ {
			run(idx)
		}
		return
	}

	var (
		wg   sync.WaitGroup
		next atomic.Int64
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(next.Add(1) - 1)
				if idx >= count {
					return
				}
				run(idx)
			}
		}()
	}
	wg.Wait()
}
