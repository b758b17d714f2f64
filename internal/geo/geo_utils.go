package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// BoundingBox defines the corners of a lat/lon box
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLng"`
	MaxLon float64 `json:"maxLng"`
}

// Contains checks whether the given latitude and longitude are within the bounding box
func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ComputeBoundingBox computes the bounding box of the given points.
// Points with invalid coordinates are ignored.
func ComputeBoundingBox(points []models.Coordinates) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, fmt.Errorf("no points to compute bounding box")
	}

	minLat := math.MaxFloat64
	maxLat := -math.MaxFloat64
	minLon := math.MaxFloat64
	maxLon := -math.MaxFloat64

	for _, p := range points {
		if !IsValidCoordinate(p.Lat, p.Lng) {
			continue
		}
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lng)
		maxLon = math.Max(maxLon, p.Lng)
	}

	if minLat == math.MaxFloat64 || maxLat == -math.MaxFloat64 ||
		minLon == math.MaxFloat64 || maxLon == -math.MaxFloat64 {
		return BoundingBox{}, fmt.Errorf("no valid latitude/longitude found in points")
	}

	return BoundingBox{
		MinLat: minLat,
		MaxLat: maxLat,
		MinLon: minLon,
		MaxLon: maxLon,
	}, nil
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees.
//
// Note: This function treats the coordinate (0,0) as invalid, even though it
// is a valid location in the Gulf of Guinea. Host applications send (0,0) for
// records that were never geocoded, so user-facing positions use this check.
// Clustering uses IsValidCoordinate instead.
func IsValidLatLon(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return IsValidCoordinate(lat, lon)
}

// IsValidCoordinate reports whether lat/lon are finite and within range.
func IsValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return true
}

// earthRadiusInMeters represents the mean radius of the Earth in meters.
//
// This value (6,371,000 meters) is defined as the Earth's volumetric mean radius,
// which is commonly used for general geospatial calculations and spherical approximations.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusInMeters = 6371000

// HaversineDistance returns the great-circle distance in meters between two points.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusInMeters
}

// Distance is HaversineDistance over Coordinates.
func Distance(a, b models.Coordinates) float64 {
	return HaversineDistance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// WithinDegrees reports whether both the latitude and longitude differences
// between a and b are strictly below tolerance degrees.
func WithinDegrees(a, b models.Coordinates, tolerance float64) bool {
	return math.Abs(a.Lat-b.Lat) < tolerance && math.Abs(a.Lng-b.Lng) < tolerance
}
