package future_test

import (
	"context"
	"fmt"
	"time"

	"github.com/vnykmshr/asyncflow/pkg/common/errors"
	"github.com/vnykmshr/asyncflow/pkg/concurrency/future"
)

// Example demonstrates lazy execution and chaining.
func Example() {
	f := future.New(func(ctx context.Context) (int, error) {
		return 20, nil
	})

	doubled := f.Then(func(r future.Result[int]) (int, error) {
		return r.Value * 2, nil
	})

	v, err := doubled.Wait(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(v)
	// Output: 40
}

// ExampleWaitFor demonstrates bounding a slow future with a timeout.
func ExampleWaitFor() {
	slow := future.Sleep(time.Minute)

	_, err := future.WaitFor(slow, 10*time.Millisecond).Wait(context.Background())
	fmt.Println("timed out:", errors.IsTimeout(err))
	fmt.Println("cancellation kind:", errors.IsCanceled(err))
	// Output:
	// timed out: true
	// cancellation kind: true
}

// ExampleCollect demonstrates waiting for several futures at once.
func ExampleCollect() {
	a := future.Of(1)
	b := future.Of(2)
	c := future.Of(3)

	values, err := future.Collect(a, b, c).Wait(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(values)
	// Output: [1 2 3]
}

// ExampleFuture_Catch demonstrates recovering from a failed computation.
func ExampleFuture_Catch() {
	f := future.Failed[string](fmt.Errorf("upstream unavailable")).
		Catch(func(err error) (string, error) {
			return "fallback", nil
		})

	v, _ := f.Wait(context.Background())
	fmt.Println(v)
	// Output: fallback
}
