package integration

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/asyncflow/internal/testutil"
	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/syncx"
	"github.com/vnykmshr/asyncflow/pkg/streaming/collectors"
	"github.com/vnykmshr/asyncflow/pkg/streaming/stream"
)

// TestStreamFutureCollectorPipeline drives the complete flow: fan out work
// as futures, stream settlements in completion order, post-process through
// the action pipeline, and reduce with a future-wrapped collector.
func TestStreamFutureCollectorPipeline(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	work := func(id int) *future.Future[int] {
		return future.New(func(ctx context.Context) (int, error) {
			delay := time.Duration(5-id) * 10 * time.Millisecond
			if _, err := future.Sleep(delay).Wait(ctx); err != nil {
				return 0, err
			}
			return id * id, nil
		})
	}

	settlements := stream.AsCompleted(ctx, work(1), work(2), work(3), work(4))

	squares := stream.MapTo(settlements, func(s future.Settlement[int]) int {
		return s.Value
	}).Filter(func(v int) bool { return v%2 == 0 })

	sum, err := collectors.Reducing(squares, 0, func(acc, v int) int {
		return acc + v
	}).Wait(ctx)
	testutil.AssertNoError(t, err)
	// 4 + 16: the even squares of 1..4.
	testutil.AssertEqual(t, 20, sum)
}

// TestSignalAbortsPipeline verifies a fired signal cancels a long pipeline
// end to end with the canonical cancellation error.
func TestSignalAbortsPipeline(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sig := future.NewSignal()
	pending := future.NewWithSignal(func(ctx context.Context) ([]int, error) {
		src := stream.Generate(func() int { return 1 }).ThrottleBy(10 * time.Millisecond)
		return src.Collect(ctx)
	}, sig)
	pending.Run()

	time.AfterFunc(30*time.Millisecond, sig.Fire)

	_, err := pending.Wait(ctx)
	if !aferrors.IsCanceled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

// TestLockSerializesStreamConsumers runs several consumers over a shared
// stateful source, each holding the lock while draining a fixed quota.
func TestLockSerializesStreamConsumers(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var produced atomic.Int64
	source := stream.Generate(func() int {
		return int(produced.Add(1))
	})

	lock := syncx.NewLock()
	var total atomic.Int64

	results := make([]*future.Future[int], 0, 3)
	for i := 0; i < 3; i++ {
		results = append(results, future.New(func(ctx context.Context) (int, error) {
			var count int
			err := lock.With(ctx, func(ctx context.Context) error {
				vs, err := source.Clone().Take(4).Collect(ctx)
				if err != nil {
					return err
				}
				count = len(vs)
				for _, v := range vs {
					total.Add(int64(v))
				}
				return nil
			})
			return count, err
		}))
	}

	counts, err := future.Collect(results...).Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, []int{4, 4, 4}, counts)

	// Serialized consumers see disjoint ranges, so the totals are 1..12.
	testutil.AssertEqual(t, int64(78), total.Load())
	testutil.AssertEqual(t, int64(12), produced.Load())
}

// TestDeadlineBoundsCollection applies WaitFor to an unbounded drain.
func TestDeadlineBoundsCollection(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	endless := stream.Generate(func() int { return 1 }).ThrottleBy(5 * time.Millisecond)
	drain := collectors.ToSlice(endless)

	_, err := future.WaitFor(drain, 40*time.Millisecond).Wait(ctx)
	if !aferrors.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	var timeoutErr *aferrors.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %T", err)
	}
}
