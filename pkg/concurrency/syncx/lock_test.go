package syncx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/asyncflow/internal/testutil"
	aferrors "github.com/vnykmshr/asyncflow/pkg/common/errors"
)

func TestTryAcquireRelease(t *testing.T) {
	lock := NewLock()

	testutil.AssertEqual(t, lock.TryAcquire(), true)
	testutil.AssertEqual(t, lock.Locked(), true)
	testutil.AssertEqual(t, lock.TryAcquire(), false)

	lock.Release()
	testutil.AssertEqual(t, lock.Locked(), false)
	testutil.AssertEqual(t, lock.TryAcquire(), true)
	lock.Release()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()
	testutil.AssertEqual(t, lock.TryAcquire(), true)

	waiter := lock.Acquire()
	waiter.Run()
	time.Sleep(10 * time.Millisecond)
	testutil.AssertEqual(t, waiter.Settled(), false)

	lock.Release()

	_, err := waiter.Wait(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, lock.Locked(), true)
	lock.Release()
}

func TestWithMutualExclusion(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.With(ctx, func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				if n > atomic.LoadInt32(&maxActive) {
					atomic.StoreInt32(&maxActive, n)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			if err != nil {
				t.Errorf("With failed: %v", err)
			}
		}()
	}

	wg.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&maxActive), int32(1))
	testutil.AssertEqual(t, lock.Locked(), false)
}

func TestWithReleasesOnError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()
	boom := errors.New("boom")

	err := lock.With(ctx, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}
	testutil.AssertEqual(t, lock.Locked(), false)
}

func TestWithReleasesOnPanic(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()

	func() {
		defer func() { _ = recover() }()
		_ = lock.With(ctx, func(context.Context) error { panic("kaboom") })
	}()

	testutil.AssertEqual(t, lock.Locked(), false)
}

func TestWithCanceledContext(t *testing.T) {
	lock := NewLock()
	testutil.AssertEqual(t, lock.TryAcquire(), true)
	defer lock.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := lock.With(ctx, func(context.Context) error {
		t.Error("fn must not run when acquisition is abandoned")
		return nil
	})
	testutil.AssertError(t, err)
}

func TestCancelRacingAcquisitionNeverLeaksLock(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()

	// Cancel concurrently with an uncontended acquisition. Whatever the
	// interleaving, a canceled settlement must leave the lock free and a
	// successful one must leave it held by the caller.
	for i := 0; i < 200; i++ {
		acquire := lock.Acquire()

		fired := make(chan struct{})
		go func() {
			acquire.Cancel()
			close(fired)
		}()

		_, err := acquire.Wait(ctx)
		<-fired

		if err == nil {
			lock.Release()
		} else if !aferrors.IsCanceled(err) {
			t.Fatalf("iteration %d: expected cancellation, got %v", i, err)
		}

		// The canceled path hands ownership back from a finally handler,
		// which may run just after Wait returns.
		testutil.Eventually(t, time.Second, func() bool {
			if lock.TryAcquire() {
				lock.Release()
				return true
			}
			return false
		})
	}
}

func TestAcquireCancellation(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	lock := NewLock()
	testutil.AssertEqual(t, lock.TryAcquire(), true)

	waiter := lock.Acquire()
	waiter.Run()
	time.Sleep(10 * time.Millisecond)
	waiter.Cancel()

	_, err := waiter.Wait(ctx)
	if !aferrors.IsCanceled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}

	// The holder can still release and reacquire normally.
	lock.Release()
	testutil.AssertEqual(t, lock.TryAcquire(), true)
	lock.Release()
}
