package travel

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// MockPair seeds one directed leg in a MockProvider.
type MockPair struct {
	From, To domain.LatLng
	Seconds  int
	Meters   int
}

// MockProvider serves pre-seeded pairs and counts calls; legs that were not
// seeded return the configured error. Used by tests that need deterministic
// travel times or provider failures.
type MockProvider struct {
	m     map[string]ports.TravelResult
	Err   error
	Calls atomic.Int64
}

func NewMockProvider(pairs []MockPair) *MockProvider {
	m := make(map[string]ports.TravelResult, len(pairs))
	for _, p := range pairs {
		m[pairKey(p.From, p.To)] = ports.TravelResult{
			Seconds: p.Seconds,
			Meters:  p.Meters,
			Source:  "mock",
		}
	}
	return &MockProvider{m: m}
}

func pairKey(from, to domain.LatLng) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}

func (p *MockProvider) Duration(
	_ context.Context,
	from, to domain.LatLng,
	_ time.Time,
) (ports.TravelResult, error) {
	p.Calls.Add(1)
	if p.Err != nil {
		return ports.TravelResult{}, p.Err
	}
	r, ok := p.m[pairKey(from, to)]
	if !ok {
		return ports.TravelResult{}, fmt.Errorf("%w: missing pair %v -> %v", ports.ErrProviderUnavailable, from, to)
	}
	return r, nil
}

func (p *MockProvider) Matrix(
	ctx context.Context,
	points []domain.LatLng,
	departAt time.Time,
) (*ports.TravelMatrix, error) {
	n := len(points)
	out := &ports.TravelMatrix{
		Points:  points,
		Seconds: make([][]int, n),
		Meters:  make([][]int, n),
	}
	for i := 0; i < n; i++ {
		out.Seconds[i] = make([]int, n)
		out.Meters[i] = make([]int, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			r, err := p.Duration(ctx, points[i], points[j], departAt)
			if err != nil {
				return nil, err
			}
			out.Seconds[i][j] = r.Seconds
			out.Meters[i][j] = r.Meters
		}
	}
	return out, nil
}
