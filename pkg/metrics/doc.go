// Package metrics provides Prometheus instrumentation for asyncflow components.
//
// All asyncflow packages report through the DefaultRegistry, which registers
// against prometheus.DefaultRegisterer. Applications that manage their own
// registries can create an isolated Registry with NewRegistry and expose it
// however they like:
//
//	reg := prometheus.NewRegistry()
//	metrics.DefaultRegistry = metrics.NewRegistry(reg)
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metric families:
//
//   - asyncflow_future_*: executor starts, settlements by outcome
//     (completed, failed, canceled), settle latency, fired signals, and
//     grace-window force rejections.
//   - asyncflow_stream_*: pulls by origin (executor vs backlog), emitted
//     items, one-to-many expansions, and current backlog depth.
//   - asyncflow_lock_*: acquisitions, wait time, and current waiters,
//     labeled by scope (local or distributed).
package metrics
