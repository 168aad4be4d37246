package ports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"itinerary-engine/internal/domain"
)

func TestDurationKeyCollapsesNearbyCoordinates(t *testing.T) {
	depart := time.Date(2026, 5, 1, 9, 7, 0, 0, time.UTC)
	from := domain.LatLng{Lat: 52.52001, Lng: 13.40501}
	to := domain.LatLng{Lat: 52.53, Lng: 13.415}

	a := NewDurationKey("mapbox", "walk", from, to, depart)
	// Well under the 4-decimal resolution (~11 m): same entry.
	b := NewDurationKey("mapbox", "walk",
		domain.LatLng{Lat: from.Lat + 3e-5, Lng: from.Lng}, to, depart)
	assert.Equal(t, a.String(), b.String())

	// A few hundred meters away: different entry.
	c := NewDurationKey("mapbox", "walk",
		domain.LatLng{Lat: from.Lat + 3e-3, Lng: from.Lng}, to, depart)
	assert.NotEqual(t, a.String(), c.String())
}

func TestDurationKeyBucketsDepartureTime(t *testing.T) {
	from := domain.LatLng{Lat: 52.52, Lng: 13.405}
	to := domain.LatLng{Lat: 52.53, Lng: 13.415}
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	inBucket := NewDurationKey("mapbox", "walk", from, to, base.Add(14*time.Minute))
	atStart := NewDurationKey("mapbox", "walk", from, to, base)
	nextBucket := NewDurationKey("mapbox", "walk", from, to, base.Add(15*time.Minute))

	assert.Equal(t, atStart.String(), inBucket.String())
	assert.NotEqual(t, atStart.String(), nextBucket.String())
}

func TestDirectionsKeyIgnoresDepartureTime(t *testing.T) {
	from := domain.LatLng{Lat: 52.52, Lng: 13.405}
	to := domain.LatLng{Lat: 52.53, Lng: 13.415}

	k := NewDirectionsKey("mapbox", "walk", from, to)
	assert.Equal(t, "mapbox:walk:52.52000,13.40500->52.53000,13.41500", k.String())

	rev := NewDirectionsKey("mapbox", "walk", to, from)
	assert.NotEqual(t, k.String(), rev.String(), "walking paths are directional")
}
