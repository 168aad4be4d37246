package travel

import (
	"context"
	"time"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// EstimateProvider computes walking time as great-circle distance divided by
// a fixed walking speed. It has no network dependency and is the fallback of
// last resort for every routed lookup.
type EstimateProvider struct {
	speed float64 // m/s
}

// NewEstimateProvider clamps the speed to a sane floor so a zero-valued
// request cannot produce infinite durations.
func NewEstimateProvider(walkingSpeed float64) *EstimateProvider {
	if walkingSpeed < 0.05 {
		walkingSpeed = 0.05
	}
	return &EstimateProvider{speed: walkingSpeed}
}

func (p *EstimateProvider) Duration(
	_ context.Context,
	from, to domain.LatLng,
	_ time.Time,
) (ports.TravelResult, error) {
	meters := domain.HaversineM(from, to)
	return ports.TravelResult{
		Seconds:   int(meters / p.speed),
		Meters:    int(meters),
		Source:    "estimate",
		Estimated: true,
	}, nil
}

func (p *EstimateProvider) Matrix(
	ctx context.Context,
	points []domain.LatLng,
	departAt time.Time,
) (*ports.TravelMatrix, error) {
	n := len(points)
	m := &ports.TravelMatrix{
		Points:  points,
		Seconds: make([][]int, n),
		Meters:  make([][]int, n),
	}
	for i := 0; i < n; i++ {
		m.Seconds[i] = make([]int, n)
		m.Meters[i] = make([]int, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			r, _ := p.Duration(ctx, points[i], points[j], departAt)
			m.Seconds[i][j] = r.Seconds
			m.Meters[i][j] = r.Meters
		}
	}
	return m, nil
}
