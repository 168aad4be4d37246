package ports

import (
	"context"
	"fmt"
	"time"

	"itinerary-engine/internal/domain"
)

// Coordinate rounding applied before hashing, so near-duplicate queries
// collapse onto the same cache entry.
const (
	durationKeyPlaces   = 4
	directionsKeyPlaces = 5
)

// Departure times are quantized into buckets so traffic/crowd-dependent
// durations stay fresh without cache-busting on every second.
const TimeBucket = 15 * time.Minute

// DurationKey identifies one pairwise travel-time lookup.
type DurationKey struct {
	Provider string
	Mode     string
	From     domain.LatLng
	To       domain.LatLng
	Bucket   string
}

// NewDurationKey rounds the coordinates and quantizes the departure time.
func NewDurationKey(provider, mode string, from, to domain.LatLng, departAt time.Time) DurationKey {
	return DurationKey{
		Provider: provider,
		Mode:     mode,
		From:     from.Round(durationKeyPlaces),
		To:       to.Round(durationKeyPlaces),
		Bucket:   departAt.UTC().Truncate(TimeBucket).Format("200601021504"),
	}
}

func (k DurationKey) String() string {
	return fmt.Sprintf("%s:%s:%.4f,%.4f->%.4f,%.4f:%s",
		k.Provider, k.Mode, k.From.Lat, k.From.Lng, k.To.Lat, k.To.Lng, k.Bucket)
}

// DirectionsKey identifies one path lookup. Paths do not depend on departure
// time, so there is no bucket component.
type DirectionsKey struct {
	Provider string
	Mode     string
	From     domain.LatLng
	To       domain.LatLng
}

func NewDirectionsKey(provider, mode string, from, to domain.LatLng) DirectionsKey {
	return DirectionsKey{
		Provider: provider,
		Mode:     mode,
		From:     from.Round(directionsKeyPlaces),
		To:       to.Round(directionsKeyPlaces),
	}
}

func (k DirectionsKey) String() string {
	return fmt.Sprintf("%s:%s:%.5f,%.5f->%.5f,%.5f",
		k.Provider, k.Mode, k.From.Lat, k.From.Lng, k.To.Lat, k.To.Lng)
}

// Cached value for a pairwise duration lookup.
type DurationEntry struct {
	Seconds int `json:"seconds"`
	Meters  int `json:"meters"`
}

// Cached value for a directions lookup.
type DirectionsEntry struct {
	Polyline string `json:"polyline"`
	Seconds  int    `json:"seconds"`
	Meters   int    `json:"meters"`
}

// Port: pairwise travel-time cache. Get returns ErrCacheMiss for absent or
// expired keys; implementations choose the TTL.
type DurationCache interface {
	Get(ctx context.Context, key DurationKey) (DurationEntry, error)
	Put(ctx context.Context, key DurationKey, entry DurationEntry) error
}

// Port: directions/polyline cache with a longer TTL than durations.
type DirectionsCache interface {
	Get(ctx context.Context, key DirectionsKey) (DirectionsEntry, error)
	Put(ctx context.Context, key DirectionsKey, entry DirectionsEntry) error
}
