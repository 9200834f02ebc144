package stream

import (
	"context"
)

// MapTo derives a stream of a different element type. The source is pulled
// lazily, one element per downstream pull.
func MapTo[T, U any](src *Stream[T], mapper func(T) U) *Stream[U] {
	return newRaw(func(ctx context.Context) ([]U, bool, error) {
		v, ok, err := src.Next(ctx)
		if err != nil || !ok {
			return nil, !ok, err
		}
		return []U{mapper(v)}, false, nil
	})
}

// Chunk groups elements into fixed-size batches. The final batch may be
// partial: it is emitted on source exhaustion rather than discarded.
// Chunk panics if size is not positive.
func Chunk[T any](src *Stream[T], size int) *Stream[[]T] {
	if size <= 0 {
		panic("stream: chunk size must be positive")
	}

	exhausted := false
	return newRaw(func(ctx context.Context) ([][]T, bool, error) {
		if exhausted {
			return nil, true, nil
		}

		batch := make([]T, 0, size)
		for len(batch) < size {
			v, ok, err := src.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				exhausted = true
				break
			}
			batch = append(batch, v)
		}

		if len(batch) == 0 {
			return nil, true, nil
		}
		return [][]T{batch}, false, nil
	})
}

// ChunkBy splits the source into batches whenever the predicate matches.
// keepSplit controls whether the matching element is included in the batch
// that triggered the split or discarded. Empty batches are never emitted.
func ChunkBy[T any](src *Stream[T], predicate func(T) bool, keepSplit bool) *Stream[[]T] {
	exhausted := false
	return newRaw(func(ctx context.Context) ([][]T, bool, error) {
		if exhausted {
			return nil, true, nil
		}

		var batch []T
		for {
			v, ok, err := src.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				exhausted = true
				if len(batch) == 0 {
					return nil, true, nil
				}
				return [][]T{batch}, false, nil
			}

			if predicate(v) {
				if keepSplit {
					batch = append(batch, v)
				}
				if len(batch) == 0 {
					continue
				}
				return [][]T{batch}, false, nil
			}
			batch = append(batch, v)
		}
	})
}

// Flatten expands a stream of slices into a stream of their elements,
// preserving order. Multi-element slices are buffered through the backlog
// and fully drained before the source is pulled again.
func Flatten[T any](src *Stream[[]T]) *Stream[T] {
	return newRaw(func(ctx context.Context) ([]T, bool, error) {
		batch, ok, err := src.Next(ctx)
		if err != nil || !ok {
			return nil, !ok, err
		}
		return batch, false, nil
	})
}
