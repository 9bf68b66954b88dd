package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	// HTTPErrorsTotal tracks HTTP errors by structured error type
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gennotes_http_errors_total",
			Help: "Total HTTP errors by error type",
		},
		[]string{"type"},
	)
)

// Email delivery metrics
var (
	// EmailSendsTotal tracks outbound mail by backend and status
	EmailSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gennotes_email_sends_total",
			Help: "Outbound email deliveries by backend and status",
		},
		[]string{"backend", "status"},
	)

	// EmailSendDuration tracks delivery latency in seconds
	EmailSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gennotes_email_send_duration_seconds",
			Help:    "Email delivery duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)
)

// Editing metrics
var (
	// EditsCommittedTotal tracks committed edits by entity kind and action
	EditsCommittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gennotes_edits_committed_total",
			Help: "Committed edits by entity kind and action",
		},
		[]string{"entity", "action"},
	)

	// EditConflictsTotal tracks rejected deletes due to stale versions
	EditConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gennotes_edit_conflicts_total",
			Help: "Deletes rejected because the submitted version was stale",
		},
	)
)

// Account metrics
var (
	// SignupsTotal counts account creations
	SignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gennotes_signups_total",
			Help: "Total account signups",
		},
	)

	// VerificationsTotal counts completed email verifications
	VerificationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gennotes_email_verifications_total",
			Help: "Total completed email verifications",
		},
	)
)
