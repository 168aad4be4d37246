package domain

import "math"

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance between two points in meters.
func HaversineM(a, b LatLng) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	dPhi := (b.Lat - a.Lat) * math.Pi / 180
	dLmb := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLmb/2)*math.Sin(dLmb/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Round returns a copy with both coordinates rounded to the given number of
// decimal places. Cache keys round before hashing so that near-duplicate
// lookups collapse onto the same entry.
func (p LatLng) Round(places int) LatLng {
	factor := math.Pow10(places)
	return LatLng{
		Lat: math.Round(p.Lat*factor) / factor,
		Lng: math.Round(p.Lng*factor) / factor,
	}
}

// Valid reports whether the point is a usable WGS84 coordinate.
func (p LatLng) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
