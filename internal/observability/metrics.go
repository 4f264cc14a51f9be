package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "rides_created_total", Help: "Total rides booked"})
	RidesAssigned   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "rides_assigned_total", Help: "Total driver assignments"})
	RidesCompleted  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "rides_completed_total", Help: "Total completed rides"})
	RidesCancelled  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "rides_cancelled_total", Help: "Total cancelled rides"})
	HistoryWrites   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "history_writes_total", Help: "Total ride history records written"})
	NotifyFailures  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "notify_failures_total", Help: "Total failed assignment notifications"})
	EffectFailures  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: "accessride", Name: "effect_failures_total", Help: "Best-effort transition effects that failed"}, []string{"effect"})
	DriversUpserted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "accessride", Name: "drivers_upserted_total", Help: "Total driver directory upserts"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "accessride", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "accessride",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
