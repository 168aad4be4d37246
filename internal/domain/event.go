package domain

import "time"

// Event is a single time-boxed candidate stop on the itinerary.
//
// The window [WindowStart, WindowEnd] bounds when the event can be attended,
// and [DwellMin, DwellMax] bounds how long (in minutes) the walker stays.
// Popularity orders events when the engine has to drop some of them.
// Events are immutable once loaded into a problem instance.
type Event struct {
	ID              string    `json:"id"`
	Venue           LatLng    `json:"venue"`
	VenueName       string    `json:"venueName,omitempty"`
	WindowStart     time.Time `json:"windowStart"`
	WindowEnd       time.Time `json:"windowEnd"`
	DwellMin        int       `json:"dwellMin"`
	DwellMax        int       `json:"dwellMax"`
	Popularity      float64   `json:"popularity"`
	BookingRequired bool      `json:"bookingRequired,omitempty"`
}

// DwellMinSec returns the minimum dwell in seconds.
func (e Event) DwellMinSec() int { return e.DwellMin * 60 }

// DwellMaxSec returns the maximum dwell in seconds.
func (e Event) DwellMaxSec() int { return e.DwellMax * 60 }
