// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, document store operations,
// dashboard sources and background jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quillpress"

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Document store metrics
	DocstoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Document store operations by operation, collection, and result",
		},
		[]string{"op", "collection", "result"},
	)

	DocstoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operation_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op", "collection"},
	)

	// Dashboard metrics
	DashboardSourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "source_failures_total",
			Help:      "Dashboard sources that failed and were replaced by a default",
		},
		[]string{"source"},
	)

	// Background job metrics
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "postCount reconciliation runs by result",
		},
		[]string{"result"},
	)

	ReconcileCorrections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "corrections_total",
			Help:      "Category postCount values corrected by reconciliation",
		},
	)
)

// ObserveReconcile records one reconciliation run.
func ObserveReconcile(changed int, err error) {
	if err != nil {
		ReconcileRuns.WithLabelValues("error").Inc()
		return
	}
	ReconcileRuns.WithLabelValues("success").Inc()
	ReconcileCorrections.Add(float64(changed))
}

// Timer is a helper for measuring operation duration.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer was created.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}
