package solver

import (
	"fmt"

	"itinerary-engine/internal/domain"
)

// validateSchedule is the acceptance gate for a finished schedule: every
// visit inside its event's window and dwell range, arrivals strictly
// increasing, and no departure past the trip end. Violations indicate a
// solver bug, not bad input.
func validateSchedule(req domain.SolveRequest, sched domain.Schedule) error {
	events := make(map[string]domain.Event, len(req.Events))
	for _, ev := range req.Events {
		events[ev.ID] = ev
	}

	var prevArrive, prevDepart = req.StartTime, req.StartTime
	for i, v := range sched.Visits {
		ev, ok := events[v.EventID]
		if !ok {
			return fmt.Errorf("validate schedule: visit %d references unknown event %q", i, v.EventID)
		}
		if i > 0 && !v.Arrive.After(prevArrive) {
			return fmt.Errorf("validate schedule: event %q arrival does not increase", v.EventID)
		}
		if v.Arrive.Before(prevDepart) {
			return fmt.Errorf("validate schedule: event %q arrival precedes previous departure", v.EventID)
		}
		if v.DwellSec < ev.DwellMinSec() || v.DwellSec > ev.DwellMaxSec() {
			return fmt.Errorf("validate schedule: event %q dwell %ds outside [%d, %d]",
				v.EventID, v.DwellSec, ev.DwellMinSec(), ev.DwellMaxSec())
		}
		if !v.Depart.Equal(v.Arrive.Add(secDuration(v.DwellSec))) {
			return fmt.Errorf("validate schedule: event %q departure does not match arrival plus dwell", v.EventID)
		}
		if v.Arrive.Before(ev.WindowStart) {
			return fmt.Errorf("validate schedule: event %q arrival before window start", v.EventID)
		}
		if v.Depart.After(ev.WindowEnd) {
			return fmt.Errorf("validate schedule: event %q departure after window end", v.EventID)
		}
		if ev.BookingRequired && v.Arrive.After(ev.WindowStart) {
			return fmt.Errorf("validate schedule: event %q booked start missed", v.EventID)
		}
		if v.Depart.After(req.EndTime) {
			return fmt.Errorf("validate schedule: event %q departure past the trip end", v.EventID)
		}
		prevArrive, prevDepart = v.Arrive, v.Depart
	}
	return nil
}
