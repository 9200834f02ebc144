// Package collectors provides terminal reductions that drain a stream into
// a future-wrapped result, so collection composes with the rest of the
// concurrency layer (WaitFor deadlines, signal cancellation, combinators).
package collectors

import (
	"context"
	"strings"

	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
	"github.com/vnykmshr/asyncflow/pkg/streaming/stream"
)

// Collector reduces a drained stream into a result. Implementations receive
// every element in emission order.
type Collector[T, R any] func(ctx context.Context, s *stream.Stream[T]) (R, error)

// Collect applies a collector lazily: the returned future drains the stream
// on first Wait.
func Collect[T, R any](s *stream.Stream[T], c Collector[T, R]) *future.Future[R] {
	return future.New(func(ctx context.Context) (R, error) {
		return c(ctx, s)
	})
}

// ToSlice drains the stream into an ordered slice.
func ToSlice[T any](s *stream.Stream[T]) *future.Future[[]T] {
	return future.New(func(ctx context.Context) ([]T, error) {
		return s.Collect(ctx)
	})
}

// ToSet drains the stream into a set, deduplicating by key equality.
func ToSet[T comparable](s *stream.Stream[T]) *future.Future[map[T]struct{}] {
	return future.New(func(ctx context.Context) (map[T]struct{}, error) {
		set := make(map[T]struct{})
		err := s.ForEach(ctx, func(v T) {
			set[v] = struct{}{}
		})
		if err != nil {
			return nil, err
		}
		return set, nil
	})
}

// Joining drains a string stream into a single separator-joined string.
func Joining(s *stream.Stream[string], sep string) *future.Future[string] {
	return future.New(func(ctx context.Context) (string, error) {
		var b strings.Builder
		first := true
		err := s.ForEach(ctx, func(v string) {
			if !first {
				b.WriteString(sep)
			}
			first = false
			b.WriteString(v)
		})
		if err != nil {
			return "", err
		}
		return b.String(), nil
	})
}

// Counting drains the stream and resolves with the element count.
func Counting[T any](s *stream.Stream[T]) *future.Future[int64] {
	return future.New(func(ctx context.Context) (int64, error) {
		return s.Count(ctx)
	})
}

// GroupingBy drains the stream into buckets keyed by classifier, preserving
// per-bucket emission order.
func GroupingBy[T any, K comparable](s *stream.Stream[T], classifier func(T) K) *future.Future[map[K][]T] {
	return future.New(func(ctx context.Context) (map[K][]T, error) {
		groups := make(map[K][]T)
		err := s.ForEach(ctx, func(v T) {
			k := classifier(v)
			groups[k] = append(groups[k], v)
		})
		if err != nil {
			return nil, err
		}
		return groups, nil
	})
}

// Reducing folds the stream left-to-right from an initial accumulator.
func Reducing[T, R any](s *stream.Stream[T], initial R, fold func(R, T) R) *future.Future[R] {
	return future.New(func(ctx context.Context) (R, error) {
		acc := initial
		err := s.ForEach(ctx, func(v T) {
			acc = fold(acc, v)
		})
		if err != nil {
			var zero R
			return zero, err
		}
		return acc, nil
	})
}
