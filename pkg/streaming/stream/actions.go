package stream

import (
	"context"
	"time"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// actionKind enumerates the staged pipeline variants. Every kind is handled
// exhaustively by apply; adding a kind without extending the switch is a bug
// caught by the default branch.
type actionKind uint8

const (
	actionTransform actionKind = iota
	actionSkip
	actionLimit
	actionExpand
	actionThrottle
)

// action is one stage of a stream's pipeline.
type action[T any] struct {
	kind actionKind

	// transform maps a value; ok=false drops it and pulls again.
	transform func(T) (T, bool)

	// expand turns one value into zero or more values.
	expand func(T) []T

	// n is the skip/limit target, seen the progress toward it.
	n    int64
	seen int64

	// interval paces emissions for throttle stages.
	interval time.Duration
	last     time.Time
}

func (a *action[T]) reset() *action[T] {
	cp := *a
	cp.seen = 0
	cp.last = time.Time{}
	return &cp
}

// apply threads a value through the actions starting at index start.
// It reports the resulting value and whether it should be emitted. The limit
// stage marks the stream done directly, so the terminal state survives a
// later stage dropping the boundary value.
func (s *Stream[T]) apply(ctx context.Context, v T, start int) (T, bool, error) {
	for i := start; i < len(s.actions); i++ {
		act := s.actions[i]

		switch act.kind {
		case actionTransform:
			nv, ok := act.transform(v)
			if !ok {
				// Filtered out: skip this step, pull again from the top.
				return v, false, nil
			}
			v = nv

		case actionSkip:
			act.seen++
			if act.seen <= act.n {
				return v, false, nil
			}

		case actionLimit:
			if act.n <= 0 {
				s.done = true
				return v, false, nil
			}
			act.seen++
			if act.seen >= act.n {
				// The boundary value is still emitted (when no later stage
				// drops it), then the stream ends.
				s.done = true
			}

		case actionExpand:
			items := act.expand(v)
			switch len(items) {
			case 0:
				return v, false, nil
			case 1:
				v = items[0]
			default:
				v = items[0]
				// Remainder resumes at the action after this one; prepend so
				// nested expansions interleave depth-first.
				s.pushBacklog(backlogEntry[T]{records: items[1:], actionIndex: i + 1})
				metrics.DefaultRegistry.StreamExpansions.Inc()
			}

		case actionThrottle:
			if !act.last.IsZero() {
				wait := act.interval - time.Since(act.last)
				if wait > 0 {
					timer := time.NewTimer(wait)
					select {
					case <-timer.C:
					case <-ctx.Done():
						timer.Stop()
						var zero T
						return zero, false, aferrors.ErrCanceled
					}
				}
			}
			act.last = time.Now()

		default:
			panic("stream: unknown action kind")
		}
	}

	return v, true, nil
}

// Filter keeps only elements matching the predicate.
func (s *Stream[T]) Filter(predicate func(T) bool) *Stream[T] {
	return s.with(&action[T]{
		kind: actionTransform,
		transform: func(v T) (T, bool) {
			return v, predicate(v)
		},
	})
}

// Map transforms each element. Type-changing transforms use the package
// function MapTo.
func (s *Stream[T]) Map(mapper func(T) T) *Stream[T] {
	return s.with(&action[T]{
		kind: actionTransform,
		transform: func(v T) (T, bool) {
			return mapper(v), true
		},
	})
}

// Peek runs action on each element without modifying the stream.
func (s *Stream[T]) Peek(fn func(T)) *Stream[T] {
	return s.with(&action[T]{
		kind: actionTransform,
		transform: func(v T) (T, bool) {
			fn(v)
			return v, true
		},
	})
}

// Skip drops the first n elements.
func (s *Stream[T]) Skip(n int64) *Stream[T] {
	return s.with(&action[T]{kind: actionSkip, n: n})
}

// Take ends the stream after emitting n elements. The boundary is
// inclusive: the nth element is emitted before the stream ends.
func (s *Stream[T]) Take(n int64) *Stream[T] {
	return s.with(&action[T]{kind: actionLimit, n: n})
}

// FlatMap expands each element into zero or more elements of the same type.
// Multi-element expansions are buffered through the backlog and drained
// before the executor is pulled again.
func (s *Stream[T]) FlatMap(expand func(T) []T) *Stream[T] {
	return s.with(&action[T]{kind: actionExpand, expand: expand})
}

// ThrottleBy spaces emissions at least interval apart.
func (s *Stream[T]) ThrottleBy(interval time.Duration) *Stream[T] {
	return s.with(&action[T]{kind: actionThrottle, interval: interval})
}

// with returns a new stream sharing the executor, with the action appended
// to a copy of the pipeline.
func (s *Stream[T]) with(act *action[T]) *Stream[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Stream[T]{
		pull:    s.pull,
		actions: make([]*action[T], len(s.actions)+1),
	}
	copy(next.actions, s.actions)
	next.actions[len(s.actions)] = act
	return next
}
