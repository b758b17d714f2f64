package models

import "fmt"

// Coordinates represents a geographic point in WGS84 decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the point the way routing providers expect it ("lat,lng").
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
