package stream

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/vnykmshr/asyncflow/internal/testutil"
)

func TestMapTo(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := MapTo(FromSlice([]int{1, 2, 3}), strconv.Itoa).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, []string{"1", "2", "3"}, got)
}

func TestMapToIsLazy(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	pulls := 0
	src := Generate(func() int { pulls++; return pulls })
	derived := MapTo(src, func(v int) string { return fmt.Sprintf("#%d", v) })
	testutil.AssertEqual(t, 0, pulls)

	v, ok, err := derived.Next(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, true, ok)
	testutil.AssertEqual(t, "#1", v)
	testutil.AssertEqual(t, 1, pulls)
}

func TestChunkBoundary(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := Chunk(FromSlice([]int{1, 2, 3, 4, 5}), 2).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 3, len(got))
	testutil.AssertSliceEqual(t, []int{1, 2}, got[0])
	testutil.AssertSliceEqual(t, []int{3, 4}, got[1])
	// The trailing partial chunk is emitted, not dropped.
	testutil.AssertSliceEqual(t, []int{5}, got[2])
}

func TestChunkExact(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := Chunk(FromSlice([]int{1, 2, 3, 4}), 2).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, len(got))
}

func TestChunkEmptySource(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := Chunk(Empty[int](), 3).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 0, len(got))
}

func TestChunkPanicsOnBadSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive chunk size")
		}
	}()
	Chunk(Empty[int](), 0)
}

func TestChunkBy(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	isZero := func(v int) bool { return v == 0 }

	got, err := ChunkBy(FromSlice([]int{1, 2, 0, 3, 0, 0, 4}), isZero, false).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 3, len(got))
	testutil.AssertSliceEqual(t, []int{1, 2}, got[0])
	testutil.AssertSliceEqual(t, []int{3}, got[1])
	testutil.AssertSliceEqual(t, []int{4}, got[2])
}

func TestChunkByKeepSplit(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	isZero := func(v int) bool { return v == 0 }

	got, err := ChunkBy(FromSlice([]int{1, 0, 2, 3, 0}), isZero, true).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, 2, len(got))
	testutil.AssertSliceEqual(t, []int{1, 0}, got[0])
	testutil.AssertSliceEqual(t, []int{2, 3, 0}, got[1])
}

func TestFlattenOrdering(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := Flatten(FromSlice([][]int{{1, 2}, {3}, {}, {4, 5, 6}})).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, []int{1, 2, 3, 4, 5, 6}, got)
}

func TestFlattenPullsSourceOncePerBatch(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	pulls := 0
	source := FromSlice([][]int{{1, 2, 3}, {4, 5}})
	flat := Flatten(source.Peek(func([]int) { pulls++ }))

	got, err := flat.Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, []int{1, 2, 3, 4, 5}, got)
	// The backlog drains each batch fully before the source is pulled again.
	testutil.AssertEqual(t, 2, pulls)
}

func TestChunkThenFlattenRoundTrip(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	in := []int{1, 2, 3, 4, 5, 6, 7}
	got, err := Flatten(Chunk(FromSlice(in), 3)).Collect(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, in, got)
}
