package async

import (
	"context"
	"sync/atomic"
)

type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Unpack() (T, error) {
	return r.Value, r.Err
}

// JobHandle owns one background job. Stop cancels it, Wait blocks until it
// settles. Stop is idempotent.
type JobHandle[T any] struct {
	cancel context.CancelFunc
	done   chan Result[T]
	err    atomic.Pointer[error]
}

// Job starts fn in its own goroutine with a cancellable context.
func Job[T any](fn func(ctx context.Context) (T, error)) *JobHandle[T] {
	ctx, cancel := context.WithCancel(context.Background())
	handle := &JobHandle[T]{
		cancel: cancel,
		done:   make(chan Result[T], 1),
	}

	go func() {
		defer cancel()

		res, err := fn(ctx)

		handle.err.Store(&err)
		handle.done <- Result[T]{Value: res, Err: err}
	}()

	return handle
}

func (j *JobHandle[T]) Stop() {
	j.cancel()
}

func (j *JobHandle[T]) Wait() (T, error) {
	return (<-j.done).Unpack()
}

// Error returns the job's error without blocking, nil while still running.
func (j *JobHandle[T]) Error() error {
	err := j.err.Load()
	if err == nil {
		return nil
	}
	return *err
}
