package distributed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Example_basicUsage demonstrates cross-instance mutual exclusion.
func Example_basicUsage() {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Println("Redis not available, skipping example")
		return
	}

	lock, err := NewLock(Config{
		Redis: rdb,
		Key:   "example:rollup",
		TTL:   10 * time.Second,
	})
	if err != nil {
		fmt.Println("config error:", err)
		return
	}

	err = lock.With(ctx, func(ctx context.Context) error {
		fmt.Println("holding the lock")
		return nil
	})
	if err != nil {
		fmt.Println("lock error:", err)
	}

	// Output varies: prints "holding the lock" when Redis is reachable.
}

// Example_acquireTimeout bounds how long a contender waits.
func Example_acquireTimeout() {
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Println("Redis not available, skipping example")
		return
	}

	lock, err := NewLock(Config{
		Redis:          rdb,
		Key:            "example:bounded",
		TTL:            10 * time.Second,
		AcquireTimeout: 250 * time.Millisecond,
	})
	if err != nil {
		fmt.Println("config error:", err)
		return
	}

	if _, err := lock.Acquire(ctx).Wait(ctx); err != nil {
		fmt.Println("could not acquire in time:", err)
		return
	}
	defer func() { _ = lock.Release(ctx) }()

	fmt.Println("acquired within the bound")
	// Output varies based on contention.
}
