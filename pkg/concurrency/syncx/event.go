package syncx

import (
	"context"
	"sync"
	"time"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
)

// Event is a level-triggered wait gate. Wait resolves immediately while the
// event is set, otherwise on the next Set. Set wakes every waiter registered
// at that moment; waiters arriving after a subsequent Clear wait for the
// next Set.
type Event struct {
	mu  sync.Mutex
	set bool
	gen chan struct{} // closed on Set, replaced on Clear
}

// NewEvent creates a cleared Event.
func NewEvent() *Event {
	return &Event{gen: make(chan struct{})}
}

// Set marks the event and wakes all current waiters. The event remains set
// until Clear.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		return
	}
	e.set = true
	close(e.gen)
}

// Clear resets the event so future waiters block until the next Set.
func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		return
	}
	e.set = false
	e.gen = make(chan struct{})
}

// IsSet returns true while the event is set.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait returns a future that resolves once the event is set.
func (e *Event) Wait() *future.Future[struct{}] {
	e.mu.Lock()
	set := e.set
	gen := e.gen
	e.mu.Unlock()

	return future.New(func(ctx context.Context) (struct{}, error) {
		if set {
			return struct{}{}, nil
		}
		select {
		case <-gen:
			return struct{}{}, nil
		case <-ctx.Done():
			return struct{}{}, aferrors.ErrCanceled
		}
	})
}

// WaitTimeout returns a future that resolves once the event is set or
// rejects with a timeout error when the deadline elapses first.
func (e *Event) WaitTimeout(timeout time.Duration) *future.Future[struct{}] {
	return future.WaitFor(e.Wait(), timeout)
}
