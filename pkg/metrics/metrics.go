// Package metrics provides Prometheus instrumentation for asyncflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for asyncflow components.
type Registry struct {
	// Future Metrics
	FuturesStarted  prometheus.Counter
	FuturesSettled  *prometheus.CounterVec
	FutureDuration  prometheus.Histogram
	SignalsFired    prometheus.Counter
	GraceExpiration prometheus.Counter

	// Stream Metrics
	StreamPulls      *prometheus.CounterVec
	StreamItems      prometheus.Counter
	StreamExpansions prometheus.Counter
	BacklogDepth     prometheus.Gauge

	// Lock Metrics
	LockAcquisitions *prometheus.CounterVec
	LockWaitTime     *prometheus.HistogramVec
	LockContention   *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by asyncflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Future Metrics
		FuturesStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "future",
				Name:      "started_total",
				Help:      "Total number of futures whose executor has been started",
			},
		),

		FuturesSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "future",
				Name:      "settled_total",
				Help:      "Total number of settled futures by outcome",
			},
			[]string{"outcome"},
		),

		FutureDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "asyncflow",
				Subsystem: "future",
				Name:      "duration_seconds",
				Help:      "Time between executor start and settlement",
				Buckets:   prometheus.DefBuckets,
			},
		),

		SignalsFired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "future",
				Name:      "signals_fired_total",
				Help:      "Total number of cancellation signals fired",
			},
		),

		GraceExpiration: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "future",
				Name:      "grace_expirations_total",
				Help:      "Total number of futures force-rejected after the cancellation grace window",
			},
		),

		// Stream Metrics
		StreamPulls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "stream",
				Name:      "pulls_total",
				Help:      "Total number of stream pulls by origin (executor or backlog)",
			},
			[]string{"origin"},
		),

		StreamItems: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "stream",
				Name:      "items_emitted_total",
				Help:      "Total number of items emitted by streams",
			},
		),

		StreamExpansions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "stream",
				Name:      "expansions_total",
				Help:      "Total number of one-to-many expansions buffered through the backlog",
			},
		),

		BacklogDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "asyncflow",
				Subsystem: "stream",
				Name:      "backlog_depth",
				Help:      "Current number of buffered backlog entries across streams",
			},
		),

		// Lock Metrics
		LockAcquisitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "asyncflow",
				Subsystem: "lock",
				Name:      "acquisitions_total",
				Help:      "Total number of lock acquisitions",
			},
			[]string{"scope"},
		),

		LockWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "asyncflow",
				Subsystem: "lock",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for lock ownership",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scope"},
		),

		LockContention: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "asyncflow",
				Subsystem: "lock",
				Name:      "waiters",
				Help:      "Number of acquirers currently waiting for a lock",
			},
			[]string{"scope"},
		),
	}
}
