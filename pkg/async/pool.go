package async

import (
	"context"
	"sync"
)

// ForEach runs fn for every item with at most concurrency invocations in
// flight, and returns only once every invocation has settled. fn is expected
// to absorb its own errors; a slow or failing item never blocks the others
// beyond its own lifetime.
func ForEach[T any](ctx context.Context, concurrency int, items []T, fn func(context.Context, int, T)) {
	if concurrency < 1 {
		concurrency = 1
	}

	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, item T) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			fn(ctx, i, item)
		}(i, item)
	}

	wg.Wait()
}
