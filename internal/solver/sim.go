package solver

import (
	"time"

	"itinerary-engine/internal/domain"
)

func secDuration(sec int) time.Duration { return time.Duration(sec) * time.Second }

func minDwell(ev domain.Event) time.Duration { return secDuration(ev.DwellMinSec()) }

// routeVisit is one planned stop: a node index plus the dwell the plan
// allocates to it. Dwell varies by stage (the primary solver plans at
// dwellMin, the fallback starts at dwellMax and compresses).
type routeVisit struct {
	node  int
	dwell int // seconds
}

// legTimes are the simulated offsets (seconds from trip start) for one stop.
type legTimes struct {
	travel int // walking seconds from the previous stop
	reach  int // moment the walker physically gets there
	arrive int // entry moment: max(reach, window start)
	wait   int // arrive - reach
	depart int // arrive + dwell
}

// simulate walks a route from the start depot, computing per-stop times and
// checking every window and the trip's end bound. The end-depot leg is only
// enforced for non-empty routes: the empty schedule is the guaranteed floor
// regardless of where the trip is supposed to finish.
func simulate(in *Instance, route []routeVisit) ([]legTimes, bool) {
	times := make([]legTimes, len(route))
	pos := 0
	t := 0

	for i, v := range route {
		n := in.Nodes[v.node]
		travel := in.Sec[pos][matrixIdx(v.node)]
		reach := t + travel
		arrive := reach
		if arrive < n.twStart {
			arrive = n.twStart
		}
		if arrive > n.latestArrive(v.dwell) {
			return nil, false
		}
		depart := arrive + v.dwell
		times[i] = legTimes{
			travel: travel,
			reach:  reach,
			arrive: arrive,
			wait:   arrive - reach,
			depart: depart,
		}
		pos = matrixIdx(v.node)
		t = depart
	}

	if in.HasEnd && len(route) > 0 {
		if t+in.Sec[pos][in.EndIdx] > in.Horizon {
			return nil, false
		}
	}

	return times, true
}

// travelSum totals the walking legs of a simulated route, including the
// closing leg to a fixed end point.
func travelSum(in *Instance, route []routeVisit, times []legTimes) int {
	total := 0
	for _, lt := range times {
		total += lt.travel
	}
	if in.HasEnd && len(route) > 0 {
		total += in.Sec[matrixIdx(route[len(route)-1].node)][in.EndIdx]
	}
	return total
}

// objective scores a simulated route:
//
//	travel*walk + late*latePenalty + wait*waitPenalty - popularity*visitedBonus
//
// Windows are hard constraints: simulate rejects any arrival past the latest
// feasible entry, so the lateness term is zero for every accepted route and
// the weight stays aligned with the documented objective. Unvisited events
// are charged separately via the skip penalty; see fullObjective.
func objective(in *Instance, route []routeVisit, times []legTimes) float64 {
	cost := 0.0
	for i, v := range route {
		n := in.Nodes[v.node]
		lt := times[i]
		late := lt.arrive - n.latestArrive(v.dwell)
		if late < 0 {
			late = 0
		}
		cost += float64(lt.travel)*in.W.Walk +
			float64(late)*in.W.LatePenalty +
			float64(lt.wait)*in.W.WaitPenalty -
			n.ev.Popularity*in.W.VisitedBonus
	}
	if in.HasEnd && len(route) > 0 {
		cost += float64(in.Sec[matrixIdx(route[len(route)-1].node)][in.EndIdx]) * in.W.Walk
	}
	return cost
}

// fullObjective adds the skip penalty for every event not on the route.
func fullObjective(in *Instance, route []routeVisit, times []legTimes) float64 {
	return objective(in, route, times) + in.SkipPen*float64(len(in.Nodes)-len(route))
}
