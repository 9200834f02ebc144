package future

import (
	"context"
	"time"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
)

// Settlement is the per-input outcome reported by CollectSettled.
type Settlement[T any] struct {
	Value T
	Err   error
}

// Failed returns true if the input rejected.
func (s Settlement[T]) Failed() bool {
	return s.Err != nil
}

// Collect waits for all futures and resolves with their values in input
// order. It fails fast: the first rejection cancels the remaining siblings
// and becomes the combinator's error. Cancelling the combinator cancels
// every input.
func Collect[T any](futures ...*Future[T]) *Future[[]T] {
	return New(func(ctx context.Context) ([]T, error) {
		type settled struct {
			index int
			value T
			err   error
		}
		ch := make(chan settled, len(futures))

		for i, f := range futures {
			go func(i int, f *Future[T]) {
				v, err := f.Wait(ctx)
				ch <- settled{index: i, value: v, err: err}
			}(i, f)
		}

		results := make([]T, len(futures))
		for remaining := len(futures); remaining > 0; remaining-- {
			select {
			case s := <-ch:
				if s.err != nil {
					cancelAll(futures)
					return nil, s.err
				}
				results[s.index] = s.value
			case <-ctx.Done():
				cancelAll(futures)
				return nil, aferrors.ErrCanceled
			}
		}
		return results, nil
	})
}

// CollectSettled waits for every future regardless of outcome and resolves
// with one Settlement per input, in input order. It never fails fast and
// never cancels its inputs.
func CollectSettled[T any](futures ...*Future[T]) *Future[[]Settlement[T]] {
	return New(func(ctx context.Context) ([]Settlement[T], error) {
		results := make([]Settlement[T], len(futures))
		for i, f := range futures {
			v, err := f.Wait(ctx)
			results[i] = Settlement[T]{Value: v, Err: err}
		}
		return results, nil
	})
}

// FirstCompleted resolves or rejects with the first future to settle and
// cancels the losers.
func FirstCompleted[T any](futures ...*Future[T]) *Future[T] {
	return New(func(ctx context.Context) (T, error) {
		type settled struct {
			value T
			err   error
		}
		ch := make(chan settled, len(futures))

		for _, f := range futures {
			go func(f *Future[T]) {
				v, err := f.Wait(ctx)
				ch <- settled{value: v, err: err}
			}(f)
		}

		select {
		case s := <-ch:
			cancelAll(futures)
			return s.value, s.err
		case <-ctx.Done():
			cancelAll(futures)
			var zero T
			return zero, aferrors.ErrCanceled
		}
	})
}

// WaitFor races f against a timer. If the deadline elapses first, f is
// cancelled and the combinator rejects with a timeout error (a cancellation
// subtype). If f settles first, the timer is cleared.
func WaitFor[T any](f *Future[T], timeout time.Duration) *Future[T] {
	d := newFuture[T]()
	d.executor = func(ctx context.Context) (T, error) {
		f.Run()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-f.Done():
			return f.Wait(ctx)
		case <-timer.C:
			f.Cancel()
			var zero T
			return zero, &aferrors.TimeoutError{Timeout: timeout}
		case <-ctx.Done():
			var zero T
			return zero, aferrors.ErrCanceled
		}
	}
	d.upstream = f.Cancel
	return d
}

// Sleep resolves with the wake-up time after the period elapses. Cancelling
// the future clears the underlying timer and rejects early.
func Sleep(period time.Duration) *Future[time.Time] {
	return New(func(ctx context.Context) (time.Time, error) {
		timer := time.NewTimer(period)
		defer timer.Stop()

		select {
		case t := <-timer.C:
			return t, nil
		case <-ctx.Done():
			return time.Time{}, aferrors.ErrCanceled
		}
	})
}

func cancelAll[T any](futures []*Future[T]) {
	for _, f := range futures {
		f.Cancel()
	}
}
