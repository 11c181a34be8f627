package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	MarksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Total number of attendance marks recorded",
		},
		[]string{"status"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_imports_total",
			Help: "Total number of roster CSV imports",
		},
		[]string{"result"},
	)

	NotifyEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_emails_total",
			Help: "Total number of daily schedule emails",
		},
		[]string{"result"},
	)
)
