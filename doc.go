/*
Package asyncflow provides a Go library for composing asynchronous work as
cancellable futures and lazily evaluated pull streams.

Concurrency (pkg/concurrency):
  - future: Cancellable, chainable single-valued computations
  - syncx: Event gate and future-based Lock
  - distributed: Multi-instance locking with Redis

Streaming (pkg/streaming):
  - stream: Lazy pull streams with a staged action pipeline
  - collectors: Terminal reducers that drain a stream into a future

Example usage:

	import (
		"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
		"github.com/vnykmshr/asyncflow/pkg/streaming/stream"
	)

	f := future.Sleep(time.Second)
	result := future.WaitFor(f, 100*time.Millisecond) // times out, cancels f

	doubled, _ := stream.FromSlice([]int{1, 2, 3}).
		Map(func(x int) int { return x * 2 }).
		Collect(context.Background()) // [2 4 6]
*/
package asyncflow
