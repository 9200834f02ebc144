package stream

import (
	"context"
	"sync"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
)

// Pair holds one element from each side of a Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Merge interleaves several streams into one. Each source is drained by its
// own pump goroutine, so arrival order decides interleaving; the merged
// stream ends when every source is exhausted. The pumps start lazily on the
// first pull and stop when the merged stream's consumer cancels its context.
func Merge[T any](ctx context.Context, streams ...*Stream[T]) *Stream[T] {
	type item struct {
		value T
		err   error
	}

	var once sync.Once
	ch := make(chan item, len(streams))
	done := make(chan struct{})

	startPumps := func() {
		var wg sync.WaitGroup
		for _, src := range streams {
			wg.Add(1)
			go func(src *Stream[T]) {
				defer wg.Done()
				for {
					v, ok, err := src.Next(ctx)
					if err != nil {
						select {
						case ch <- item{err: err}:
						case <-ctx.Done():
						}
						return
					}
					if !ok {
						return
					}
					select {
					case ch <- item{value: v}:
					case <-ctx.Done():
						return
					}
				}
			}(src)
		}
		go func() {
			wg.Wait()
			close(done)
		}()
	}

	return New(func(pullCtx context.Context) (ExecutorState[T], error) {
		once.Do(startPumps)

		select {
		case it := <-ch:
			if it.err != nil {
				var zero ExecutorState[T]
				return zero, it.err
			}
			return Yield(it.value), nil
		case <-done:
			// Drain anything buffered between the last send and close(done).
			select {
			case it := <-ch:
				if it.err != nil {
					var zero ExecutorState[T]
					return zero, it.err
				}
				return Yield(it.value), nil
			default:
				return End[T](), nil
			}
		case <-pullCtx.Done():
			var zero ExecutorState[T]
			return zero, aferrors.ErrCanceled
		}
	})
}

// Zip pairs elements positionally from two streams. It pulls the sides
// sequentially, left first, and ends as soon as either side is exhausted.
func Zip[A, B any](left *Stream[A], right *Stream[B]) *Stream[Pair[A, B]] {
	return newRaw(func(ctx context.Context) ([]Pair[A, B], bool, error) {
		a, ok, err := left.Next(ctx)
		if err != nil || !ok {
			return nil, !ok, err
		}
		b, ok, err := right.Next(ctx)
		if err != nil || !ok {
			return nil, !ok, err
		}
		return []Pair[A, B]{{First: a, Second: b}}, false, nil
	})
}

// AsCompleted streams future settlements in completion order. Rejected
// futures surface their error in sequence rather than aborting the other
// waits. Waiting starts lazily on the first pull.
func AsCompleted[T any](ctx context.Context, futures ...*future.Future[T]) *Stream[future.Settlement[T]] {
	var once sync.Once
	ch := make(chan future.Settlement[T], len(futures))
	remaining := len(futures)

	startWaits := func() {
		for _, f := range futures {
			go func(f *future.Future[T]) {
				v, err := f.Wait(ctx)
				ch <- future.Settlement[T]{Value: v, Err: err}
			}(f)
		}
	}

	return New(func(pullCtx context.Context) (ExecutorState[future.Settlement[T]], error) {
		once.Do(startWaits)

		if remaining == 0 {
			return End[future.Settlement[T]](), nil
		}

		select {
		case settlement := <-ch:
			remaining--
			return Yield(settlement), nil
		case <-pullCtx.Done():
			var zero ExecutorState[future.Settlement[T]]
			return zero, aferrors.ErrCanceled
		}
	})
}
