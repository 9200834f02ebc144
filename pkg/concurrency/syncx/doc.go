/*
Package syncx provides synchronization primitives built on futures: a
level-triggered Event gate and a mutual-exclusion Lock whose acquisition is
itself a cancellable future.

Event:

	ev := syncx.NewEvent()

	go func() {
		prepare()
		ev.Set() // wakes every current waiter, stays set until Clear
	}()

	_, err := ev.Wait().Wait(ctx)           // resolves on Set
	_, err = ev.WaitTimeout(time.Second).Wait(ctx) // or times out

Lock:

	lock := syncx.NewLock()

	err := lock.With(ctx, func(ctx context.Context) error {
		return updateSharedState(ctx) // released on return, panic, or cancellation
	})

Acquire returns a future, so lock acquisition can be raced, timed out, or
cancelled like any other asynchronous computation:

	_, err := future.WaitFor(lock.Acquire(), 100*time.Millisecond).Wait(ctx)

Fairness: waiters re-attempt acquisition after each release and may succeed
out of request order. This weak fairness is intentional and documented; see
Lock for details.
*/
package syncx
