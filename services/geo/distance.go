package geo

import (
	"math"
)

// EarthRadiusKm is the fixed mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// MaxFreeDistanceKm is the free-delivery threshold for fallback contacts.
// Anything strictly beyond it requires an extra fee and scheduling.
const MaxFreeDistanceKm = 3.0

// DistanceKm computes the haversine great-circle distance in kilometers
// between two coordinate pairs.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// RequiresExtraFee reports whether a fallback contact at the given distance
// from its primary address needs the paid scheduling flow. The boundary is
// strict: exactly 3.0 km is still free.
func RequiresExtraFee(distanceKm float64) bool {
	return distanceKm > MaxFreeDistanceKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
