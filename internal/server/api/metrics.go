package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileembed_http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileembed_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// source is form, api or submit.
	filesStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileembed_files_stored_total",
			Help: "Files stored, by upload path.",
		},
		[]string{"source"},
	)

	fileViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileembed_file_views_total",
			Help: "Viewer page renders, by preview mode.",
		},
		[]string{"preview"},
	)

	lookupsMissedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileembed_lookups_missed_total",
		Help: "Lookups for ids that are not in the store.",
	})
)
