package ports

import (
	"context"
	"time"

	"itinerary-engine/internal/domain"
)

// Walking time and distance between two points.
// Degraded marks a value produced by the estimate fallback after a routed
// provider failure; Estimated marks any straight-line value.
type TravelResult struct {
	Seconds   int
	Meters    int
	Source    string
	Estimated bool
	Degraded  bool
}

// TravelMatrix holds pairwise travel results for a fixed point list.
// Seconds[i][j] is the walking time from Points[i] to Points[j].
type TravelMatrix struct {
	Points  []domain.LatLng
	Seconds [][]int
	Meters  [][]int
	// Degraded is true when any cell came from the estimate fallback.
	Degraded bool
}

// Contract for retrieving walking time between locations at a departure time.
type TravelTimeProvider interface {
	// Return travel time and distance for a single origin/destination pair.
	Duration(ctx context.Context, from, to domain.LatLng, departAt time.Time) (TravelResult, error)
	// Return the full pairwise matrix for a point list. Implementations may
	// batch this into a single upstream call or fan out bounded per-pair
	// lookups.
	Matrix(ctx context.Context, points []domain.LatLng, departAt time.Time) (*TravelMatrix, error)
}
