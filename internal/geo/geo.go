// Package geo provides great-circle distance for geofenced check-ins.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by Distance
const EarthRadiusMeters = 6371000

// Point is a WGS84 coordinate in degrees
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance calculates the haversine distance between two points in meters
func Distance(a, b Point) float64 {
	φ1 := a.Latitude * math.Pi / 180
	φ2 := b.Latitude * math.Pi / 180
	Δφ := (b.Latitude - a.Latitude) * math.Pi / 180
	Δλ := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Within reports whether p lies inside the circle of radius meters around center
func Within(center, p Point, radius float64) bool {
	return Distance(center, p) <= radius
}
