package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels for VisibilityDecisions.
const (
	DecisionAllowed        = "allowed"
	DecisionDeniedBlocked  = "denied_blocked"
	DecisionDeniedNoFollow = "denied_not_follower"
)

var (
	// VisibilityDecisions counts access decisions by mode (single, batch) and outcome.
	VisibilityDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyx_visibility_decisions_total",
		Help: "Total number of visibility decisions by mode and outcome",
	}, []string{"mode", "decision"})

	// StorageRoundTrips counts batch calls issued to storage ports.
	StorageRoundTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyx_storage_round_trips_total",
		Help: "Total number of storage round trips by port",
	}, []string{"port"})

	// FeedAssemblyLatency records feed assembly latency by filter.
	FeedAssemblyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nyx_feed_assembly_latency_seconds",
		Help:    "Feed assembly latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"filter"})

	// FeedItemsDropped counts candidate items removed by the final access check.
	FeedItemsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyx_feed_items_dropped_total",
		Help: "Candidate items removed by the access policy after retrieval",
	}, []string{"filter"})

	// InvalidCursors counts rejected pagination tokens.
	InvalidCursors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nyx_invalid_cursors_total",
		Help: "Total number of rejected pagination tokens",
	})

	// CacheErrors counts Redis errors by operation type.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyx_cache_errors_total",
		Help: "Total number of cache errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nyx_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nyx_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordRoundTrip increments the round-trip counter for port.
func RecordRoundTrip(port string) {
	StorageRoundTrips.WithLabelValues(port).Inc()
}

// RecordDecision increments the decision counter.
func RecordDecision(mode, decision string) {
	VisibilityDecisions.WithLabelValues(mode, decision).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackFeed returns a function that records feed assembly latency when called.
func TrackFeed(filter string) func() {
	start := time.Now()
	return func() {
		FeedAssemblyLatency.WithLabelValues(filter).Observe(time.Since(start).Seconds())
	}
}
