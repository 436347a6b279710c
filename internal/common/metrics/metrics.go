package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_sync_api_requests_total",
			Help: "Total number of REST API requests by method, route and status code",
		},
		[]string{"method", "route", "code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talent_sync_api_request_duration_seconds",
			Help:    "Duration of REST API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_sync_store_actions_total",
			Help: "Async store actions by type and phase",
		},
		[]string{"action", "phase"},
	)

	SessionClearedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talent_sync_session_cleared_total",
			Help: "Number of times a 401 response cleared the local session",
		},
	)

	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talent_sync_realtime_events_total",
			Help: "Realtime events received by type",
		},
		[]string{"type"},
	)
)
