package entity

import (
	"fmt"
	"math"
)

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies within the coordinate ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// String formats the point as "lat,lng".
func (p Point) String() string {
	return fmt.Sprintf("%.7f,%.7f", p.Latitude, p.Longitude)
}
