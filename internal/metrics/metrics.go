// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codegen"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, path and status code.",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PoolRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_runs_total",
			Help:      "Master pool generation runs, by result.",
		},
		[]string{"result"},
	)
	PoolCodesInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_codes_inserted_total",
			Help:      "Codes added to the master pool.",
		},
	)
	PoolCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_collisions_total",
			Help:      "Candidate codes rejected as duplicates of existing pool entries.",
		},
	)
	PoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Entries in the master pool at the end of the last run.",
		},
	)

	CapacityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_checks_total",
			Help:      "Capacity checks, by outcome.",
		},
		[]string{"outcome"},
	)

	PassesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Request processing passes, by result.",
		},
		[]string{"result"},
	)
	PassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of request processing passes.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1200},
		},
	)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Code generation requests handled, by outcome.",
		},
		[]string{"outcome"},
	)
	UnitCodesAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_codes_allocated_total",
			Help:      "Unit codes written to per-level tables.",
		},
	)
	ContainerCodesAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "container_codes_allocated_total",
			Help:      "SSCC codes written.",
		},
	)
	UnitShortfall = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_shortfall_total",
			Help:      "Unit codes requested but not available in the pool.",
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			PoolRunsTotal,
			PoolCodesInserted,
			PoolCollisions,
			PoolSize,
			CapacityChecksTotal,
			PassesTotal,
			PassDuration,
			RequestsTotal,
			UnitCodesAllocated,
			ContainerCodesAllocated,
			UnitShortfall,
		)
	})
}
