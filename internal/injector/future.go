package injector

import "context"

// Future is an in-flight async construction result. It is completed exactly
// once by the injector and may be awaited by any number of goroutines.
type Future struct {
	done  chan struct{}
	value interface{}
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(value interface{}, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is cancelled. The
// construction itself is not cancelled by ctx; cancellation here abandons
// the wait only.
func (f *Future) Await(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
