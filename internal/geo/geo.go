// Package geo provides great-circle distance computation and distance-based
// scoring for event recommendation ranking.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// MaxDistanceKm is the sentinel distance returned when either location is
// missing or invalid. It is large enough that such events always score 0.0
// on proximity and sort last, without ever failing the request.
const MaxDistanceKm = math.MaxFloat64

// Point represents a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether the point holds a plausible coordinate pair.
func (p *Point) Valid() bool {
	if p == nil {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm computes the haversine great-circle distance between two points
// in kilometers. Returns MaxDistanceKm if either point is nil or invalid.
func DistanceKm(a, b *Point) float64 {
	if !a.Valid() || !b.Valid() {
		return MaxDistanceKm
	}

	lat1 := a.Lat * math.Pi / 180
	lng1 := a.Lng * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lng2 := b.Lng * math.Pi / 180

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Score converts a distance in kilometers to a proximity score in [0, 1].
// The bucketing is monotonically non-increasing with distance:
//
//	<= 5 km  -> 1.0
//	<= 10 km -> 0.8
//	<= 20 km -> 0.5
//	<= 50 km -> 0.2
//	>  50 km -> 0.0
//
// Negative distances are treated as invalid and score 0.0.
func Score(distanceKm float64) float64 {
	if distanceKm < 0 {
		return 0.0
	}

	switch {
	case distanceKm <= 5:
		return 1.0
	case distanceKm <= 10:
		return 0.8
	case distanceKm <= 20:
		return 0.5
	case distanceKm <= 50:
		return 0.2
	default:
		return 0.0
	}
}

// WithinRadius reports whether point is within radiusKm of center.
// Returns false if either point is missing or invalid.
func WithinRadius(center, point *Point, radiusKm float64) bool {
	if !center.Valid() || !point.Valid() {
		return false
	}
	return DistanceKm(center, point) <= radiusKm
}

// FormatDistance renders a distance as a human-readable string,
// e.g. "500 m" or "2.5 km".
func FormatDistance(distanceKm float64) string {
	if distanceKm < 1.0 {
		return fmt.Sprintf("%.0f m", distanceKm*1000)
	}
	return fmt.Sprintf("%.1f km", distanceKm)
}
