/*
Package future provides cancellable, chainable, lazily started asynchronous
computations.

A Future wraps an executor function and does nothing until it is consumed:

	f := future.New(func(ctx context.Context) (string, error) {
		return fetch(ctx, url) // ctx is canceled when any signal fires
	})

	value, err := f.Wait(ctx) // starts the executor, memoizes the settlement

Settlement is memoized. Waiting on a settled future returns the cached value
or error; the executor is never invoked a second time.

Cancellation:

Every future owns a default Signal, and extra signals can be attached with
RegisterSignal. Firing any of them cancels the computation:

	sig := future.NewSignal()
	f.RegisterSignal(sig)
	sig.Fire() // or f.Cancel() to fire them all

Cancellation is cooperative: the executor's context is canceled and the
executor is expected to tear down and return. Executors that do not observe
the signal are force-rejected after a grace window (DefaultGracePeriod,
tunable per future with WithGracePeriod), which bounds cancellation latency.
A cancelled future rejects with an error matching errors.ErrCanceled.

Chaining:

	doubled := future.Then(f, func(r future.Result[string]) (int, error) {
		return len(r.Value) * 2, nil
	})

	recovered := doubled.Catch(func(err error) (int, error) {
		return 0, nil // swallow the failure
	})

	recovered.Finally(func(f *future.Future[int]) {
		cleanup()
	})

Each continuation stage receives a Result carrying the stage's own signal, so
deeply nested chains stay cancellable from any layer; cancelling a derived
future propagates upstream to its source.

Combinators:

	all := future.Collect(a, b, c)            // fail-fast, cancels siblings
	settled := future.CollectSettled(a, b, c) // waits for every outcome
	winner := future.FirstCompleted(a, b, c)  // cancels the losers
	bounded := future.WaitFor(f, time.Second) // timeout-kind rejection
	timer := future.Sleep(time.Minute)        // cancellable timer

Errors follow the taxonomy in pkg/common/errors: cancellation, timeout
(a cancellation subtype), and execution failures wrapped in ExecutionError.
Callers branch on error kind with errors.IsCanceled / errors.IsTimeout
rather than string matching.
*/
package future
