// Package errors defines the error taxonomy shared across the asyncflow library.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common error types used across the asyncflow library

var (
	// ErrCanceled indicates that a future or stream was aborted via its
	// cancellation signal. It is an expected, recoverable condition.
	ErrCanceled = errors.New("computation canceled")

	// ErrTimeout indicates that a deadline elapsed before settlement.
	// A timeout is a specialization of cancellation, so ErrTimeout matches
	// ErrCanceled under errors.Is.
	ErrTimeout = fmt.Errorf("%w: deadline elapsed", ErrCanceled)

	// ErrStreamEnded is the graceful-exhaustion sentinel. Stream executors
	// return it to signal "no more values"; the pull loop converts it into a
	// normal end of iteration and never surfaces it to consumers.
	ErrStreamEnded = errors.New("stream ended")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// TimeoutError is returned by future.WaitFor when the deadline elapses before
// the raced future settles. It unwraps to ErrTimeout (and therefore also
// matches ErrCanceled).
type TimeoutError struct {
	// Timeout is the deadline that elapsed.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v", e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// ExecutionError wraps any failure produced by an executor or continuation
// that is not already part of the taxonomy, so callers can rely on a uniform
// shape while the original cause stays reachable via errors.Is/As.
type ExecutionError struct {
	// Op names the operation that failed, e.g. "future.executor".
	Op string

	// Cause is the original error.
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// WrapExecution wraps err into an ExecutionError unless it already belongs to
// the taxonomy (cancellation, timeout, stream end, or an existing
// ExecutionError), in which case it is returned unchanged.
func WrapExecution(op string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.Is(err, ErrCanceled) || errors.Is(err, ErrStreamEnded) || errors.As(err, &execErr) {
		return err
	}
	return &ExecutionError{Op: op, Cause: err}
}

// IsCanceled returns true if the error is of the cancellation kind,
// including timeouts.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsTimeout returns true if the error is of the timeout kind.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsStreamEnd returns true if the error signals graceful stream exhaustion.
func IsStreamEnd(err error) bool {
	return errors.Is(err, ErrStreamEnded)
}

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// OperationError describes a failed operation against an external resource,
// such as a Redis round trip from the distributed lock.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}
