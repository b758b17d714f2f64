package planner

import (
	"fmt"
	"math"

	"github.com/raedapplebanon-spec/route-map/internal/directions"
)

// Summary is the human-readable route total shown under the map.
type Summary struct {
	DistanceKm      float64 `json:"distanceKm"`
	DurationMinutes int     `json:"durationMinutes"`
	DistanceText    string  `json:"distanceText"`
	DurationText    string  `json:"durationText"`
}

// Totals sums leg distances (meters) and durations (seconds).
func Totals(legs []directions.Leg) (meters, seconds float64) {
	for _, leg := range legs {
		meters += leg.DistanceMeters
		seconds += leg.DurationSeconds
	}
	return meters, seconds
}

// Summarize rounds totals to kilometers with one decimal and whole minutes.
func Summarize(meters, seconds float64) Summary {
	km := math.Round(meters/100) / 10
	minutes := int(math.Round(seconds / 60))
	return Summary{
		DistanceKm:      km,
		DurationMinutes: minutes,
		DistanceText:    fmt.Sprintf("%.1f km", km),
		DurationText:    fmt.Sprintf("%d minutes", minutes),
	}
}
