package metrics

// RecordClustering reports the result of one clustering pass over a stop list.
func RecordClustering(list string, ingested, invalid, clusters int) {
	StopsIngested.WithLabelValues(list).Add(float64(ingested))
	if invalid > 0 {
		InvalidStops.WithLabelValues(list).Add(float64(invalid))
	}
	ClustersPerRequest.WithLabelValues(list).Observe(float64(clusters))
}

// RecordPlanOutcome reports a finished planning cycle. distanceKm and
// durationMinutes are only used for succeeded plans.
func RecordPlanOutcome(outcome, strategy string, distanceKm float64, durationMinutes int) {
	PlanOutcomes.WithLabelValues(outcome, strategy).Inc()
	if outcome == "succeeded" {
		LastRouteDistanceKm.Set(distanceKm)
		LastRouteDurationMinutes.Set(float64(durationMinutes))
	}
}
