package stream

import (
	"context"
	"errors"
	"iter"
	"sync"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// ErrExecuted is returned when pulling from a single-shot stream that has
// already been executed. Clone resets the guard.
var ErrExecuted = errors.New("stream already executed")

// pullFunc is the internal executor shape. It may return several records at
// once (Flatten does); the pull loop emits the first and buffers the rest
// through the backlog. A nil/empty record set with done=false means "nothing
// this round, pull again".
type pullFunc[T any] func(ctx context.Context) ([]T, bool, error)

// backlogEntry buffers records produced by a one-to-many expansion together
// with the pipeline index they resume from, so downstream actions are not
// reapplied to records that already passed them.
type backlogEntry[T any] struct {
	records     []T
	actionIndex int
}

// Stream is a pull-based, lazily realized sequence built from a repeatable
// executor plus a staged action pipeline. Nothing runs until the first pull;
// each pull advances exactly one logical output.
//
// A Stream instance is not re-entrant: pulls are strictly sequential and a
// second pull is never issued while the first is still resolving.
type Stream[T any] struct {
	mu       sync.Mutex
	pull     pullFunc[T]
	actions  []*action[T]
	backlog  []backlogEntry[T]
	executed bool
	done     bool
}

// New creates a stream around the given executor.
func New[T any](executor Executor[T]) *Stream[T] {
	return &Stream[T]{
		pull: func(ctx context.Context) ([]T, bool, error) {
			state, err := executor(ctx)
			if err != nil {
				return nil, false, err
			}
			if state.Done {
				return nil, true, nil
			}
			return []T{state.Value}, false, nil
		},
	}
}

func newRaw[T any](pull pullFunc[T]) *Stream[T] {
	return &Stream[T]{pull: pull}
}

// Next pulls the next element. It returns (zero, false, nil) once the
// stream is exhausted. Executor failures come back wrapped in the library's
// error taxonomy; a graceful errors.ErrStreamEnded from the executor is
// converted into a normal end and never surfaced.
func (s *Stream[T]) Next(ctx context.Context) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next(ctx)
}

func (s *Stream[T]) next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}

	reg := metrics.DefaultRegistry

	for {
		if ctx.Err() != nil {
			return zero, false, aferrors.ErrCanceled
		}

		var v T
		start := 0

		if len(s.backlog) > 0 {
			entry := &s.backlog[0]
			v = entry.records[0]
			entry.records = entry.records[1:]
			start = entry.actionIndex
			if len(entry.records) == 0 {
				s.backlog = s.backlog[1:]
				reg.BacklogDepth.Dec()
			}
			reg.StreamPulls.WithLabelValues("backlog").Inc()
		} else {
			records, done, err := s.pull(ctx)
			reg.StreamPulls.WithLabelValues("executor").Inc()
			if err != nil {
				if aferrors.IsStreamEnd(err) {
					s.done = true
					return zero, false, nil
				}
				return zero, false, aferrors.WrapExecution("stream.executor", err)
			}
			if done {
				s.done = true
				return zero, false, nil
			}
			if len(records) == 0 {
				continue
			}
			v = records[0]
			if len(records) > 1 {
				rest := make([]T, len(records)-1)
				copy(rest, records[1:])
				s.pushBacklog(backlogEntry[T]{records: rest, actionIndex: 0})
			}
		}

		out, emit, err := s.apply(ctx, v, start)
		if err != nil {
			return zero, false, err
		}
		if emit {
			reg.StreamItems.Inc()
			return out, true, nil
		}
		if s.done {
			// A limit stage was reached and a later stage dropped the
			// boundary value; end without pulling again.
			return zero, false, nil
		}
	}
}

// pushBacklog prepends an entry so nested expansions drain depth-first,
// most-recent-first, before the executor is invoked again.
func (s *Stream[T]) pushBacklog(entry backlogEntry[T]) {
	s.backlog = append([]backlogEntry[T]{entry}, s.backlog...)
	metrics.DefaultRegistry.BacklogDepth.Inc()
}

// Execute pulls exactly one value from a single-shot stream. A second call
// on the same instance returns ErrExecuted; Clone resets the guard.
func (s *Stream[T]) Execute(ctx context.Context) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.executed {
		return zero, false, ErrExecuted
	}
	s.executed = true
	return s.next(ctx)
}

// Collect drains the stream into an ordered slice. It is a terminal
// operation: the stream is marked executed and subsequent Collect or
// Execute calls fail with ErrExecuted.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.executed {
		return nil, ErrExecuted
	}
	s.executed = true

	var result []T
	for {
		v, ok, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, v)
	}
}

// ForEach applies fn to every remaining element.
func (s *Stream[T]) ForEach(ctx context.Context, fn func(T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.executed {
		return ErrExecuted
	}
	s.executed = true

	for {
		v, ok, err := s.next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fn(v)
	}
}

// Count drains the stream and returns the number of elements.
func (s *Stream[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.ForEach(ctx, func(T) { count++ })
	return count, err
}

// All returns a range-over-func iterator over the remaining elements.
// Iteration stops at the first error, which is yielded with a zero value.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, ok, err := s.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Clone returns an independently iterable stream: the executed/done guards,
// backlog, and per-action progress counters are reset. The executor is
// shared by reference, so clones of a stateful source continue from the
// source's current position.
func (s *Stream[T]) Clone() *Stream[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions := make([]*action[T], len(s.actions))
	for i, act := range s.actions {
		actions[i] = act.reset()
	}
	return &Stream[T]{
		pull:    s.pull,
		actions: actions,
	}
}

// Done returns true once the stream is exhausted.
func (s *Stream[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
