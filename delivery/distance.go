package delivery

import (
	"fmt"
	"math"

	"storefront-order-engine/models"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between a and b.
// It panics on out-of-range or NaN coordinates.
func DistanceKm(a, b models.Coordinates) float64 {
	mustBeValid(a)
	mustBeValid(b)

	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLng*sinLng
	// Rounding can push h just past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidCoordinates reports whether c is a usable lat/lng pair.
func ValidCoordinates(c models.Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func mustBeValid(c models.Coordinates) {
	if !ValidCoordinates(c) {
		panic(fmt.Sprintf("delivery: invalid coordinates (%v, %v)", c.Lat, c.Lng))
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
