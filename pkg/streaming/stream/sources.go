package stream

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
)

// FromSlice creates a stream over the elements of a slice.
func FromSlice[T any](items []T) *Stream[T] {
	index := 0
	return New(func(ctx context.Context) (ExecutorState[T], error) {
		if index >= len(items) {
			return End[T](), nil
		}
		v := items[index]
		index++
		return Yield(v), nil
	})
}

// FromChannel creates a stream that drains a channel. The stream ends when
// the channel is closed.
func FromChannel[T any](ch <-chan T) *Stream[T] {
	return New(func(ctx context.Context) (ExecutorState[T], error) {
		select {
		case v, ok := <-ch:
			if !ok {
				return End[T](), nil
			}
			return Yield(v), nil
		case <-ctx.Done():
			var zero ExecutorState[T]
			return zero, aferrors.ErrCanceled
		}
	})
}

// Generate creates an infinite stream from a generator function. Bound it
// with Take before draining.
func Generate[T any](generator func() T) *Stream[T] {
	return New(func(context.Context) (ExecutorState[T], error) {
		return Yield(generator()), nil
	})
}

// Empty creates a stream with no elements.
func Empty[T any]() *Stream[T] {
	return New(func(context.Context) (ExecutorState[T], error) {
		return End[T](), nil
	})
}

// FromFuture creates a single-shot stream that emits the future's value
// and then ends. A rejected future surfaces its error on the first pull.
func FromFuture[T any](f *future.Future[T]) *Stream[T] {
	emitted := false
	return New(func(ctx context.Context) (ExecutorState[T], error) {
		if emitted {
			return End[T](), nil
		}
		v, err := f.Wait(ctx)
		if err != nil {
			var zero ExecutorState[T]
			return zero, err
		}
		emitted = true
		return Yield(v), nil
	})
}

// FromCron creates an infinite stream of activation times driven by a
// standard cron expression ("*/5 * * * *" and friends). Each pull sleeps
// until the schedule's next activation and emits it.
func FromCron(spec string) (*Stream[time.Time], error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, aferrors.NewValidationError("stream", "cron", spec, "invalid schedule").
			WithHint(err.Error())
	}

	return New(func(ctx context.Context) (ExecutorState[time.Time], error) {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		defer timer.Stop()

		select {
		case <-timer.C:
			return Yield(next), nil
		case <-ctx.Done():
			var zero ExecutorState[time.Time]
			return zero, aferrors.ErrCanceled
		}
	}), nil
}
