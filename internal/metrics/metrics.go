// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// PaymentEvents counts ledger mutations: recorded, voided, restored, deleted
	PaymentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_events_total",
			Help: "Payment lifecycle transitions",
		},
		[]string{"event"},
	)

	PaymentAmountCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_recorded_cents_total",
			Help: "Sum of recorded payment amounts in cents by payment type",
		},
		[]string{"payment_type"},
	)

	ReportCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Portfolio summary cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_failures_total",
			Help: "Failed payment event deliveries by sink",
		},
		[]string{"sink"},
	)
)
