package ports

import (
	"context"

	"itinerary-engine/internal/domain"
)

// A walkable path between two points, as an encoded polyline.
type DirectionsResult struct {
	Polyline string
	Seconds  int
	Meters   int
	Source   string
}

// Contract for retrieving a walking path between two locations.
// A directions failure degrades to a straight-line polyline; it never fails
// a solve.
type DirectionsProvider interface {
	Directions(ctx context.Context, from, to domain.LatLng) (DirectionsResult, error)
}
