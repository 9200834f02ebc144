package syncx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/asyncflow/pkg/common/contextx"
	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// Lock is a mutual-exclusion lock whose Acquire returns a future, so lock
// acquisition composes with the rest of the future machinery (WaitFor,
// Collect, cancellation signals).
//
// Waiters blocked on a held lock re-attempt acquisition after each release.
// Ordering is deliberately weakly fair: several waiters racing to reacquire
// after a release may succeed out of request order, and a steady stream of
// fresh acquirers can starve a long-standing waiter. Callers that need FIFO
// ordering should serialize requests themselves.
type Lock struct {
	mu       sync.Mutex
	locked   bool
	released *Event
}

// NewLock creates an unlocked Lock.
func NewLock() *Lock {
	return &Lock{released: NewEvent()}
}

// TryAcquire attempts to take ownership without waiting.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return false
	}
	l.locked = true
	return true
}

// Locked returns true while the lock is held.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Acquire returns a future that resolves once exclusive ownership is
// obtained. Cancelling the future abandons the wait.
func (l *Lock) Acquire() *future.Future[struct{}] {
	var acquired atomic.Bool

	f := future.New(func(ctx context.Context) (struct{}, error) {
		start := time.Now()
		reg := metrics.DefaultRegistry
		reg.LockContention.WithLabelValues("local").Inc()
		defer reg.LockContention.WithLabelValues("local").Dec()

		for {
			// Snapshot the release gate before attempting acquisition so a
			// release racing this iteration still wakes the wait below.
			released := l.released.Wait()

			if l.TryAcquire() {
				if contextx.IsCanceled(ctx) {
					// Lost a race with cancellation; do not hold ownership
					// the caller will never observe.
					l.Release()
					return struct{}{}, aferrors.ErrCanceled
				}
				acquired.Store(true)
				reg.LockAcquisitions.WithLabelValues("local").Inc()
				reg.LockWaitTime.WithLabelValues("local").Observe(time.Since(start).Seconds())
				return struct{}{}, nil
			}

			stop := context.AfterFunc(ctx, released.Cancel)
			_, err := released.Wait(ctx)
			stop()
			if err != nil {
				return struct{}{}, err
			}
		}
	})

	// A signal firing between the executor's cancellation check and
	// settlement rewrites the successful acquisition into ErrCanceled while
	// the lock is already held. Hand ownership back in that case, or every
	// later acquirer waits forever.
	return f.Finally(func(f *future.Future[struct{}]) {
		if acquired.Load() && aferrors.IsCanceled(f.Err()) {
			l.Release()
		}
	})
}

// Release gives up ownership and wakes all waiters so they can re-attempt
// acquisition.
func (l *Lock) Release() {
	l.mu.Lock()
	l.locked = false
	released := l.released
	l.mu.Unlock()

	// Pulse: wake the current waiter set, then reset for the next cycle.
	released.Set()
	released.Clear()
}

// With acquires the lock, runs fn, and releases on every exit path,
// including a panicking fn or cancellation mid-flight.
func (l *Lock) With(ctx context.Context, fn func(ctx context.Context) error) error {
	acquire := l.Acquire()
	if _, err := acquire.Wait(ctx); err != nil {
		// Abandon the in-flight acquisition so a late grab is handed back.
		// A grab that already settled before the cancel is released here;
		// one settling after it is rewritten to canceled and released by
		// the acquisition's own finally handler.
		acquire.Cancel()
		if _, ok := acquire.Value(); ok {
			l.Release()
		}
		return err
	}
	defer l.Release()
	return fn(ctx)
}
