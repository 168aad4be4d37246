package directions

import (
	"context"
	"math"
	"strings"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

// EncodePolyline encodes points using the Google polyline algorithm at the
// given precision (5 for standard polylines, 6 for polyline6).
func EncodePolyline(points []domain.LatLng, precision int) string {
	factor := math.Pow10(precision)
	var sb strings.Builder
	prevLat, prevLng := 0, 0
	for _, p := range points {
		latI := int(math.Round(p.Lat * factor))
		lngI := int(math.Round(p.Lng * factor))
		encodeValue(&sb, latI-prevLat)
		encodeValue(&sb, lngI-prevLng)
		prevLat, prevLng = latI, lngI
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, value int) {
	value <<= 1
	if value < 0 {
		value = ^value
	}
	for value >= 0x20 {
		sb.WriteByte(byte((0x20 | (value & 0x1f)) + 63))
		value >>= 5
	}
	sb.WriteByte(byte(value + 63))
}

// StraightLine produces a two-point polyline with no network dependency.
// It is the floor every routed directions lookup degrades to.
type StraightLine struct{}

func NewStraightLine() *StraightLine { return &StraightLine{} }

func (s *StraightLine) Directions(
	_ context.Context,
	from, to domain.LatLng,
) (ports.DirectionsResult, error) {
	return ports.DirectionsResult{
		Polyline: EncodePolyline([]domain.LatLng{from, to}, 5),
		Meters:   int(domain.HaversineM(from, to)),
		Source:   "straight_line",
	}, nil
}
