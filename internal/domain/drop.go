package domain

// DropReason explains why an event was left out of the itinerary.
type DropReason string

const (
	// DropWindowConflict: the event's window cannot be reached at all, even
	// under ideal routing.
	DropWindowConflict DropReason = "window_conflict"
	// DropTimeBudget: the event fits its own window but not within the
	// trip's end-time bound.
	DropTimeBudget DropReason = "time_budget_exceeded"
	// DropBookingConflict: a booking-required event whose booked start is
	// unreachable.
	DropBookingConflict DropReason = "booking_conflict"
	// DropLowPriority: sacrificed in favor of higher-popularity events.
	DropLowPriority DropReason = "low_priority"
)

// DropRecord pairs a dropped event with the reason it was excluded.
type DropRecord struct {
	EventID string     `json:"eventId"`
	Reason  DropReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}
