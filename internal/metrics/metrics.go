package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

var (
	// RouteRequests counts Route Service requests by how they were applied.
	RouteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omroep_route_requests_total",
			Help: "Route Service requests by outcome (success, failure, stale)",
		},
		[]string{"outcome"},
	)

	RouteRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "omroep_route_request_duration_seconds",
		Help:    "Latency of Route Service requests",
		Buckets: prometheus.DefBuckets,
	})
)

var (
	AnnouncementsComposed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "omroep_announcements_composed_total",
		Help: "Number of announcements composed",
	})

	IncompleteSelections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "omroep_incomplete_selections_total",
		Help: "Number of composition attempts rejected for missing fields",
	})
)
