package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StopsIngested counts stops received per list ("route" or "available")
	StopsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routemap_stops_ingested_total",
		Help: "Number of stops received for clustering",
	}, []string{"list"})

	// InvalidStops counts stops skipped because of unusable coordinates
	InvalidStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routemap_invalid_stops_total",
		Help: "Number of stops skipped by the clusterer due to invalid coordinates",
	}, []string{"list"})

	ClustersPerRequest = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routemap_clusters_per_request",
		Help:    "Number of clusters produced by one clustering pass",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
	}, []string{"list"})
)

var (
	// PlanOutcomes counts planning cycles by outcome (succeeded, failed, skipped)
	PlanOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routemap_plan_outcomes_total",
		Help: "Number of route planning cycles by outcome",
	}, []string{"outcome", "strategy"})

	// StaleResponses counts routing results discarded because a newer generation exists
	StaleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routemap_stale_responses_total",
		Help: "Number of routing results discarded because they belonged to a superseded request",
	})

	// LastRouteDistanceKm and LastRouteDurationMinutes hold the most recent successful summary
	LastRouteDistanceKm = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routemap_last_route_distance_km",
		Help: "Total distance of the most recent successfully planned route in kilometers",
	})

	LastRouteDurationMinutes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routemap_last_route_duration_minutes",
		Help: "Total duration of the most recent successfully planned route in minutes",
	})
)

var (
	// RoutingRequests counts calls to the routing provider by provider and status
	RoutingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routemap_routing_requests_total",
		Help: "Number of routing provider requests by provider and result status",
	}, []string{"provider", "status"})

	RoutingCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "routemap_routing_cache_hits_total",
		Help: "Number of routing requests served from the in-memory cache",
	}, []string{"provider"})

	// OutgoingLatency tracks latency of outgoing HTTP requests
	OutgoingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "routemap_outgoing_request_latency_seconds",
		Help:    "Latency of outgoing HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"url", "method", "status"})
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "routemap_active_sessions",
		Help: "Number of live widget sessions",
	})

	// ConfigRefreshStatus is 1 when the last remote configuration refresh succeeded
	ConfigRefreshStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "routemap_config_refresh_status",
		Help: "Status of the last remote configuration refresh (0 = failed, 1 = succeeded)",
	}, []string{"config_url"})
)
