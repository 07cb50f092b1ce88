// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Journal ============

// TradesCreated counts trades accepted into the journal.
var TradesCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "trades",
		Name:      "created_total",
		Help:      "Total number of trades recorded",
	},
)

// TradesDeleted counts trades removed from the journal.
var TradesDeleted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "trades",
		Name:      "deleted_total",
		Help:      "Total number of trades deleted",
	},
)

// TradesRejected counts submissions refused by validation, by field.
var TradesRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "trades",
		Name:      "rejected_total",
		Help:      "Total number of trade submissions rejected by validation",
	},
	[]string{"field"},
)

// TradesStored is the current length of the trade list.
var TradesStored = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "journal",
		Subsystem: "trades",
		Name:      "stored",
		Help:      "Current number of stored trades",
	},
)

// SnapshotDuration measures analytics recomputation time.
var SnapshotDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "journal",
		Subsystem: "analytics",
		Name:      "snapshot_seconds",
		Help:      "Time to recompute the analytics snapshot in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	},
)

// ============ HTTP ============

// HTTPRequests counts API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration measures API request latency.
var HTTPDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
