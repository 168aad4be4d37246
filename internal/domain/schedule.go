package domain

import "time"

// VisitRecord is one attended event within a schedule.
//
// Invariants (checked by the solver before a schedule is accepted):
// Depart = Arrive + dwell, DwellMinSec <= DwellSec <= DwellMaxSec,
// Arrive <= WindowEnd, and Depart never exceeds the trip's end-time bound.
type VisitRecord struct {
	EventID           string    `json:"eventId"`
	Arrive            time.Time `json:"arrive"`
	Depart            time.Time `json:"depart"`
	DwellSec          int       `json:"dwellSec"`
	TravelSecFromPrev int       `json:"travelSecFromPrev"`
	WaitSec           int       `json:"waitSec,omitempty"`
	Polyline          string    `json:"polyline,omitempty"`
}

// Schedule is an ordered sequence of visits with chronologically increasing
// arrival times, starting from the trip's start location.
type Schedule struct {
	Visits []VisitRecord `json:"visits"`
}

// TotalWalkSec sums the travel legs of the schedule.
func (s Schedule) TotalWalkSec() int {
	total := 0
	for _, v := range s.Visits {
		total += v.TravelSecFromPrev
	}
	return total
}
