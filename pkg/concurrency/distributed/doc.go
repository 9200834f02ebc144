// Package distributed provides a Redis-backed lock for mutual exclusion
// across application instances.
//
// The lock uses the standard single-key pattern: acquisition is SET NX PX
// with a random per-acquisition token, release is a Lua compare-and-delete
// on that token, and the TTL bounds how long a crashed holder can keep the
// key. Acquisition returns a future, so distributed locking composes with
// the same cancellation and deadline machinery as the in-process primitives.
//
//	lock, err := distributed.NewLock(distributed.Config{
//		Redis: rdb,
//		Key:   "jobs:rollup",
//		TTL:   30 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	err = lock.With(ctx, func(ctx context.Context) error {
//		return runRollup(ctx)
//	})
//
// This is a single-instance Redis lock, not Redlock: it trades multi-node
// safety guarantees for simplicity, which is the right fit for coordination
// and best-effort deduplication rather than correctness-critical exclusion.
package distributed
