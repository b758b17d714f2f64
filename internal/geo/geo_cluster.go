package geo

import (
	"github.com/golang/geo/s2"
)

// CellLevel is the s2 level used for cluster keys (~1m cells).
const CellLevel = 24

// CellToken returns the s2 cell token containing lat/lon at the given level.
// Tokens are stable across requests for the same anchor, so the widget can
// reuse markers between updates.
func CellToken(lat, lon float64, level int) string {
	ll := s2.LatLngFromDegrees(lat, lon)
	return s2.CellIDFromLatLng(ll).Parent(level).ToToken()
}
