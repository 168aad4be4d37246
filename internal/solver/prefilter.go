package solver

import (
	"context"
	"fmt"

	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
)

// prefilter statically discards events that cannot possibly be visited given
// the trip's time bounds, shrinking the problem before expensive search.
//
// It uses the estimate provider only: straight-line time at walking speed is
// a lower bound on any routed walking time, so the filter never removes an
// event some ordering could still visit.
func prefilter(
	ctx context.Context,
	req domain.SolveRequest,
	estimate *travel.EstimateProvider,
) (kept []domain.Event, drops []domain.DropRecord) {
	kept = make([]domain.Event, 0, len(req.Events))

	for _, ev := range req.Events {
		direct, _ := estimate.Duration(ctx, req.Start, ev.Venue, req.StartTime)
		earliestReach := req.StartTime.Add(secDuration(direct.Seconds))

		// The event's own minimum stay has to fit before the trip ends.
		if ev.WindowStart.Add(minDwell(ev)).After(req.EndTime) {
			drops = append(drops, domain.DropRecord{
				EventID: ev.ID,
				Reason:  domain.DropWindowConflict,
				Detail:  "window starts too late to fit the minimum dwell before the trip end",
			})
			continue
		}

		// Booking-required events must be entered by their booked start.
		if ev.BookingRequired && earliestReach.After(ev.WindowStart) {
			drops = append(drops, domain.DropRecord{
				EventID: ev.ID,
				Reason:  domain.DropBookingConflict,
				Detail: fmt.Sprintf("earliest possible arrival %s is after the booked start %s",
					earliestReach.Format("15:04:05"), ev.WindowStart.Format("15:04:05")),
			})
			continue
		}

		// Even walking straight there from the start, the window is missed.
		latestEntry := ev.WindowEnd.Add(-minDwell(ev))
		if latestEntry.After(req.EndTime.Add(-minDwell(ev))) {
			latestEntry = req.EndTime.Add(-minDwell(ev))
		}
		arrival := earliestReach
		if arrival.Before(ev.WindowStart) {
			arrival = ev.WindowStart
		}
		if arrival.After(latestEntry) {
			drops = append(drops, domain.DropRecord{
				EventID: ev.ID,
				Reason:  domain.DropWindowConflict,
				Detail: fmt.Sprintf("earliest possible arrival %s is after the latest feasible entry %s",
					arrival.Format("15:04:05"), latestEntry.Format("15:04:05")),
			})
			continue
		}

		kept = append(kept, ev)
	}

	return kept, drops
}
