package geofence

import (
	"context"
	"math"

	"timeclock/backend/internal/entity"
)

// earthRadius is the mean Earth radius in meters.
const earthRadius = 6371000.0

// Haversine computes great-circle distances locally.
type Haversine struct{}

func (Haversine) DistanceMeters(_ context.Context, a, b entity.Point) (float64, error) {
	return CalculateDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude), nil
}

// CalculateDistance returns the great-circle distance in meters between two
// coordinates given in degrees.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	Δφ := (lat2 - lat1) * math.Pi / 180.0
	Δλ := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
