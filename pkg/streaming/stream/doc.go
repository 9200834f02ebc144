// Package stream provides a lazy, pull-based generic stream with a staged
// action pipeline.
//
// A Stream wraps a repeatable Executor that produces one value per pull.
// Nothing runs until the consumer pulls; each pull advances exactly one
// output through the pipeline. Intermediate operations (Filter, Map, Skip,
// Take, FlatMap, ThrottleBy) are cheap: they append a stage to a copied
// pipeline and share the executor, so building a chain never touches the
// source.
//
// Basic usage:
//
//	s := stream.FromSlice([]int{1, 2, 3, 4, 5, 6}).
//		Filter(func(v int) bool { return v%2 == 0 }).
//		Map(func(v int) int { return v * 10 })
//
//	values, err := s.Collect(ctx)
//	// values == [20, 40, 60]
//
// One-to-many stages (FlatMap, Flatten) buffer their surplus records in an
// internal backlog that is drained before the executor is pulled again, so
// expansion preserves order and nested expansions interleave depth-first.
//
// Take is inclusive: the nth element is emitted before the stream ends.
// Skip and Take progress survives across pulls but is reset by Clone, which
// returns an independently iterable stream over the same executor.
//
// Terminal operations (Execute, Collect, ForEach, Count) are single-shot:
// a second terminal call on the same instance fails with ErrExecuted.
//
// Sources include slices, channels, generator functions, futures, and cron
// schedules; Merge, Zip and AsCompleted combine multiple inputs. All(ctx)
// adapts a stream to a range-over-func iterator.
package stream
