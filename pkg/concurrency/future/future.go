package future

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/metrics"
)

// DefaultGracePeriod bounds cancellation latency: once a registered signal
// fires, an executor that has not settled within this window is
// force-rejected with a cancellation error.
const DefaultGracePeriod = time.Second

// ErrDefaultSignal is returned when unregistering a future's own signal.
// Every future must keep at least its default signal attached.
var ErrDefaultSignal = errors.New("cannot unregister the default signal")

// Executor produces the future's value. The context is canceled as soon as
// any registered signal fires; executors are expected to observe it and
// perform their own teardown.
type Executor[T any] func(ctx context.Context) (T, error)

// Future is a single-valued, lazily started, cancellable asynchronous
// computation. Nothing runs until Run or the first Wait; settlement is
// memoized, so the executor is invoked at most once.
type Future[T any] struct {
	mu       sync.Mutex
	executor Executor[T]
	signal   *Signal
	extras   []*Signal
	upstream func() // cancels the chain this future was derived from

	grace      time.Duration
	graceTimer *time.Timer

	started   bool
	settled   bool
	startedAt time.Time
	value     T
	err       error
	done      chan struct{}
	cancelCtx context.CancelFunc
	finals    []func(*Future[T])
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		signal: NewSignal(),
		grace:  DefaultGracePeriod,
		done:   make(chan struct{}),
	}
}

// New creates an inert future around the given executor.
func New[T any](executor Executor[T]) *Future[T] {
	f := newFuture[T]()
	f.executor = executor
	return f
}

// NewWithSignal creates an inert future whose default signal is sig.
func NewWithSignal[T any](executor Executor[T], sig *Signal) *Future[T] {
	f := New(executor)
	if sig != nil {
		f.signal = sig
	}
	return f
}

// Of creates a future that resolves to the given value on first consumption.
func Of[T any](value T) *Future[T] {
	return New(func(context.Context) (T, error) {
		return value, nil
	})
}

// Failed creates a future that rejects with the given error on first
// consumption.
func Failed[T any](err error) *Future[T] {
	return New(func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// WithGracePeriod overrides the cancellation grace window. It must be called
// before the future starts; calls after that point are ignored.
func (f *Future[T]) WithGracePeriod(d time.Duration) *Future[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started && d > 0 {
		f.grace = d
	}
	return f
}

// Signal returns the future's default cancellation signal.
func (f *Future[T]) Signal() *Signal {
	return f.signal
}

// Done returns a channel closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled returns true once the future has completed or failed.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Err returns the settlement error, or nil if the future completed or has
// not yet settled.
func (f *Future[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		return nil
	}
	return f.err
}

// Value returns the settled value and true if the future completed
// successfully.
func (f *Future[T]) Value() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled || f.err != nil {
		var zero T
		return zero, false
	}
	return f.value, true
}

// RegisterSignal attaches an additional cancellation source. Registering
// after settlement is a no-op.
func (f *Future[T]) RegisterSignal(sig *Signal) {
	if sig == nil || sig == f.signal {
		return
	}
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.extras = append(f.extras, sig)
	started := f.started
	f.mu.Unlock()

	if started {
		f.attach(sig)
	}
}

// UnregisterSignal detaches an extra cancellation source. The default signal
// cannot be removed: every future keeps at least its own signal attached.
func (f *Future[T]) UnregisterSignal(sig *Signal) error {
	if sig == f.signal {
		return ErrDefaultSignal
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.extras {
		if s == sig {
			f.extras = append(f.extras[:i], f.extras[i+1:]...)
			return nil
		}
	}
	return nil
}

// Cancel fires every signal the future is registered to and propagates the
// cancellation upstream through continuation chains.
func (f *Future[T]) Cancel() {
	f.mu.Lock()
	sigs := append([]*Signal{f.signal}, f.extras...)
	upstream := f.upstream
	f.mu.Unlock()

	for _, sig := range sigs {
		sig.Fire()
	}
	if upstream != nil {
		upstream()
	}
}

// Run starts the executor if it has not started yet and returns the future.
// Running a settled future returns the cached settlement; the executor is
// never invoked twice.
func (f *Future[T]) Run() *Future[T] {
	f.start()
	return f
}

// Wait starts the future if necessary and blocks until settlement or until
// ctx is done. The settlement is memoized: repeated calls return the same
// value or error without re-invoking the executor.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	f.start()

	select {
	case <-f.done:
	case <-ctx.Done():
		select {
		case <-f.done:
		default:
			var zero T
			return zero, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Then appends a same-type continuation. The continuation receives a Result
// carrying the derived future's own signal, so deep chains remain cancellable
// from any layer. For type-changing continuations use the package-level Then.
func (f *Future[T]) Then(fn func(Result[T]) (T, error)) *Future[T] {
	return Then(f, fn)
}

// Then derives a future that waits for f and applies fn to its result.
// Cancelling the derived future also cancels f.
func Then[T, U any](f *Future[T], fn func(Result[T]) (U, error)) *Future[U] {
	d := newFuture[U]()
	d.executor = func(ctx context.Context) (U, error) {
		v, err := f.Wait(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(Result[T]{Value: v, Signal: d.signal})
	}
	d.upstream = f.Cancel
	return d
}

// Catch derives a future whose handler runs only when f rejects. The
// handler's return is treated exactly like a continuation return: it may
// recover with a value or fail again.
func (f *Future[T]) Catch(fn func(error) (T, error)) *Future[T] {
	d := newFuture[T]()
	d.executor = func(ctx context.Context) (T, error) {
		v, err := f.Wait(ctx)
		if err == nil {
			return v, nil
		}
		return fn(err)
	}
	d.upstream = f.Cancel
	return d
}

// Finally registers a handler invoked once on settlement, success or failure.
// Handlers receive the future itself for introspection and cannot change
// which branch the settlement follows. If the future has already settled the
// handler runs immediately.
func (f *Future[T]) Finally(fn func(*Future[T])) *Future[T] {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		fn(f)
		return f
	}
	f.finals = append(f.finals, fn)
	f.mu.Unlock()
	return f
}

// start launches the executor exactly once.
func (f *Future[T]) start() {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.startedAt = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	f.cancelCtx = cancel
	sigs := append([]*Signal{f.signal}, f.extras...)
	executor := f.executor
	f.mu.Unlock()

	metrics.DefaultRegistry.FuturesStarted.Inc()

	for _, sig := range sigs {
		f.attach(sig)
	}

	go f.invoke(ctx, executor)
}

func (f *Future[T]) invoke(ctx context.Context, executor Executor[T]) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			f.settle(zero, &aferrors.ExecutionError{
				Op:    "future.executor",
				Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			})
		}
	}()

	if executor == nil {
		var zero T
		f.settle(zero, nil)
		return
	}

	v, err := executor(ctx)
	f.settle(v, aferrors.WrapExecution("future.executor", err))
}

// attach wires a signal to the running future's context and grace timer.
func (f *Future[T]) attach(sig *Signal) {
	sig.OnAbort(func() {
		if !f.registered(sig) {
			return
		}
		f.abort()
	})
}

func (f *Future[T]) registered(sig *Signal) bool {
	if sig == f.signal {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.extras {
		if s == sig {
			return true
		}
	}
	return false
}

// abort cancels the executor context and arms the grace timer. If the
// executor does not settle within the window, the future force-rejects.
func (f *Future[T]) abort() {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	cancel := f.cancelCtx
	armed := f.graceTimer != nil
	if !armed {
		f.graceTimer = time.AfterFunc(f.grace, func() {
			metrics.DefaultRegistry.GraceExpiration.Inc()
			var zero T
			f.settle(zero, aferrors.ErrCanceled)
		})
	}
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// aborted reports whether any registered signal has fired.
func (f *Future[T]) aborted() bool {
	f.mu.Lock()
	sigs := append([]*Signal{f.signal}, f.extras...)
	f.mu.Unlock()
	for _, sig := range sigs {
		if sig.Fired() {
			return true
		}
	}
	return false
}

// settle records the outcome exactly once. Cancellation wins over an
// in-flight success: a settlement racing a fired signal is rewritten to the
// cancellation kind.
func (f *Future[T]) settle(value T, err error) {
	if err == nil && f.aborted() {
		err = aferrors.ErrCanceled
	} else if err != nil && !aferrors.IsCanceled(err) && f.aborted() {
		err = aferrors.ErrCanceled
	}

	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = value
	f.err = err
	if f.graceTimer != nil {
		f.graceTimer.Stop()
		f.graceTimer = nil
	}
	finals := f.finals
	f.finals = nil
	started := f.startedAt
	close(f.done)
	f.mu.Unlock()

	outcome := "completed"
	switch {
	case aferrors.IsCanceled(err):
		outcome = "canceled"
	case err != nil:
		outcome = "failed"
	}
	metrics.DefaultRegistry.FuturesSettled.WithLabelValues(outcome).Inc()
	if !started.IsZero() {
		metrics.DefaultRegistry.FutureDuration.Observe(time.Since(started).Seconds())
	}

	for _, fn := range finals {
		fn(f)
	}
}
