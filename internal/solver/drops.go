package solver

import (
	"fmt"

	"itinerary-engine/internal/domain"
)

// classifyDrop explains why a node was left out of the final route. If the
// event could slot into the route when the overall end-time bound is ignored
// (its own window still enforced), the day simply ran out: time_budget.
// Otherwise it lost the priority contest against the events that stayed.
func classifyDrop(in *Instance, ni int, route []routeVisit) domain.DropRecord {
	n := in.Nodes[ni]
	reason := domain.DropLowPriority
	detail := fmt.Sprintf("displaced by higher-priority events (popularity %.2f)", n.ev.Popularity)
	if fitsIgnoringHorizon(in, ni, route) {
		reason = domain.DropTimeBudget
		detail = "fits the event window but not the remaining time budget"
	}
	return domain.DropRecord{EventID: n.ev.ID, Reason: reason, Detail: detail}
}

// fitsIgnoringHorizon reports whether the node could be inserted at any
// position of route with its minimum dwell if only event windows (not the
// request end time or end leg) constrained the schedule.
func fitsIgnoringHorizon(in *Instance, ni int, route []routeVisit) bool {
	cand := routeVisit{node: ni, dwell: in.Nodes[ni].dwellMin}
	for pos := 0; pos <= len(route); pos++ {
		trial := make([]routeVisit, 0, len(route)+1)
		trial = append(trial, route[:pos]...)
		trial = append(trial, cand)
		trial = append(trial, route[pos:]...)
		if windowsFeasible(in, trial) {
			return true
		}
	}
	return false
}

// windowsFeasible walks a route checking only per-event windows, with each
// event's own latest departure relaxed to its raw window end. The request
// horizon and the final end leg are deliberately not applied.
func windowsFeasible(in *Instance, route []routeVisit) bool {
	pos, t := 0, 0
	for _, v := range route {
		n := in.Nodes[v.node]
		arrive := t + in.Sec[pos][matrixIdx(v.node)]
		if arrive < n.twStart {
			arrive = n.twStart
		}
		la := n.rawStart
		if !n.ev.BookingRequired {
			la = int(n.ev.WindowEnd.Sub(in.Req.StartTime).Seconds()) - v.dwell
		}
		if arrive > la {
			return false
		}
		t = arrive + v.dwell
		pos = matrixIdx(v.node)
	}
	return true
}
