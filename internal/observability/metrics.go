// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedComposeDuration records how long a feed took to assemble per context.
	FeedComposeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_feed_compose_seconds",
		Help:    "Feed composition latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"context"})

	// FeedPostsFiltered counts candidates dropped by the visibility filter.
	FeedPostsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_feed_posts_filtered_total",
		Help: "Candidate posts removed by the visibility filter",
	}, []string{"context"})

	// EdgeToggles counts like/favorite/repost/follow toggles by outcome.
	EdgeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_edge_toggles_total",
		Help: "Edge toggles by edge kind, action and outcome",
	}, []string{"edge", "action", "outcome"})

	// NotificationsCreated counts persisted notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_created_total",
		Help: "Notifications persisted by type",
	}, []string{"type"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordToggle increments the edge toggle counter.
func RecordToggle(edge, action string, changed bool) {
	outcome := "noop"
	if changed {
		outcome = "changed"
	}
	EdgeToggles.WithLabelValues(edge, action, outcome).Inc()
}
