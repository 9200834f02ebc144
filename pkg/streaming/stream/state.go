package stream

import "context"

// ExecutorState is the sentinel wrapper an executor returns to distinguish
// "produced a value" from "no more values".
type ExecutorState[T any] struct {
	// Done is true when the executor is exhausted.
	Done bool

	// Value is the produced value when Done is false.
	Value T
}

// Yield wraps a produced value.
func Yield[T any](value T) ExecutorState[T] {
	return ExecutorState[T]{Value: value}
}

// End reports stream exhaustion.
func End[T any]() ExecutorState[T] {
	return ExecutorState[T]{Done: true}
}

// Executor produces one value per pull. The context is canceled when the
// consumer abandons the stream. Executors may also signal graceful
// exhaustion by returning errors.ErrStreamEnded, which the pull loop treats
// exactly like End.
type Executor[T any] func(ctx context.Context) (ExecutorState[T], error)
