package solver

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"itinerary-engine/internal/platform/obs"
)

// errUnresolved signals that the primary solver exhausted its wall-clock
// budget before completing the search. It is an internal handoff to the
// fallback heuristic and never surfaces to callers.
var errUnresolved = errors.New("primary solver unresolved")

const costEps = 1e-9

// bbSearch is the branch-and-bound engine for one solve. A dedicated struct
// (rather than closures) keeps the hot-path state predictable.
type bbSearch struct {
	in       *Instance
	deadline time.Time
	steps    int

	// Static precomputes.
	order      []int     // node indices in branching order
	minInbound []float64 // cheapest inbound travel seconds per node

	// Incumbent.
	best     []int
	bestCost float64
	found    bool

	abandoned bool
}

// solvePrimary runs a depth-first branch-and-bound over visit/skip decisions
// under an absolute wall-clock deadline. Every intermediate visit takes the
// event's minimum dwell. If the deadline hits before the search space is
// exhausted the whole attempt is abandoned and nothing is reused: the caller
// proceeds to the fallback stages cold.
func solvePrimary(ctx context.Context, in *Instance, deadline time.Time) (_ []routeVisit, err error) {
	defer obs.Time(ctx, "solver.primary")(&err)

	// The budget is an absolute wall-clock deadline: a spent one abandons
	// before any search happens. Mid-search expiry is caught by the sparse
	// per-expansion check.
	if !time.Now().Before(deadline) {
		return nil, errUnresolved
	}

	s := &bbSearch{in: in, deadline: deadline}
	s.precompute()

	s.dfs(0, 0, 0, nil, 0)
	if s.abandoned {
		return nil, errUnresolved
	}

	route := make([]routeVisit, len(s.best))
	for i, ni := range s.best {
		route[i] = routeVisit{node: ni, dwell: in.Nodes[ni].dwellMin}
	}
	return route, nil
}

func (s *bbSearch) precompute() {
	n := len(s.in.Nodes)

	// Branch events with the tightest exit first; ties break on event ID so
	// equal-objective searches stay reproducible.
	s.order = make([]int, n)
	for i := range s.order {
		s.order[i] = i
	}
	sort.Slice(s.order, func(a, b int) bool {
		na, nb := s.in.Nodes[s.order[a]], s.in.Nodes[s.order[b]]
		if na.latestDepart != nb.latestDepart {
			return na.latestDepart < nb.latestDepart
		}
		return na.ev.ID < nb.ev.ID
	})

	// Admissible per-node bound contribution: the cheapest way any route
	// could ever reach the node.
	s.minInbound = make([]float64, n)
	for i := 0; i < n; i++ {
		minArc := -1
		for from := 0; from < len(s.in.Points); from++ {
			if from == matrixIdx(i) {
				continue
			}
			sec := s.in.Sec[from][matrixIdx(i)]
			if minArc < 0 || sec < minArc {
				minArc = sec
			}
		}
		if minArc < 0 {
			minArc = 0
		}
		s.minInbound[i] = float64(minArc)
	}
}

// hitDeadline performs a sparse wall-clock check (every 1024 expansions).
func (s *bbSearch) hitDeadline() bool {
	s.steps++
	if s.steps&1023 != 0 {
		return s.abandoned
	}
	if time.Now().After(s.deadline) {
		s.abandoned = true
	}
	return s.abandoned
}

// lowerBound is admissible: each unvisited node pays at least the cheaper of
// its skip penalty and its best-case visit contribution.
func (s *bbSearch) lowerBound(cost float64, visited uint32) float64 {
	lb := cost
	for _, ni := range s.order {
		if visited&(1<<uint(ni)) != 0 {
			continue
		}
		visit := s.minInbound[ni]*s.in.W.Walk - s.in.Nodes[ni].ev.Popularity*s.in.W.VisitedBonus
		if visit < s.in.SkipPen {
			lb += visit
		} else {
			lb += s.in.SkipPen
		}
	}
	return lb
}

// dfs explores from the current position (a matrix index) at offset t with
// the given visit decisions. At every level the search may stop (skipping
// all remaining events) or visit any still-feasible event next; any subset
// and order is reachable through those two moves.
func (s *bbSearch) dfs(pos, t int, visited uint32, seq []int, cost float64) {
	if s.hitDeadline() {
		return
	}

	// Option 1: stop here and skip everything unvisited.
	s.tryComplete(pos, t, visited, seq, cost)

	if s.found && s.lowerBound(cost, visited) > s.bestCost+costEps {
		return
	}

	// Option 2: visit a next event.
	for _, ni := range s.order {
		if visited&(1<<uint(ni)) != 0 {
			continue
		}
		n := s.in.Nodes[ni]

		travel := s.in.Sec[pos][matrixIdx(ni)]
		reach := t + travel
		arrive := reach
		if arrive < n.twStart {
			arrive = n.twStart
		}
		// Arrival times only grow deeper in the tree, so an infeasible
		// continuation stays infeasible and the branch is cut here.
		if arrive > n.latestArrive(n.dwellMin) {
			continue
		}

		wait := arrive - reach
		stepCost := float64(travel)*s.in.W.Walk +
			float64(wait)*s.in.W.WaitPenalty -
			n.ev.Popularity*s.in.W.VisitedBonus

		s.dfs(matrixIdx(ni), arrive+n.dwellMin, visited|1<<uint(ni), append(seq, ni), cost+stepCost)
		if s.abandoned {
			return
		}
	}
}

// tryComplete scores the current partial sequence as a finished schedule.
func (s *bbSearch) tryComplete(pos, t int, visited uint32, seq []int, cost float64) {
	if s.in.HasEnd {
		endLeg := s.in.Sec[pos][s.in.EndIdx]
		if len(seq) > 0 {
			if t+endLeg > s.in.Horizon {
				return
			}
			cost += float64(endLeg) * s.in.W.Walk
		}
	}

	skipped := len(s.in.Nodes) - len(seq)
	total := cost + s.in.SkipPen*float64(skipped)

	switch {
	case !s.found || total < s.bestCost-costEps:
	case total <= s.bestCost+costEps && s.lessSeq(seq):
		// Identical objective: deterministic tie-break on event IDs.
	default:
		return
	}

	s.found = true
	s.bestCost = total
	s.best = append(s.best[:0], seq...)
}

// lessSeq orders candidate sequences by their event-ID sequence so ties are
// broken reproducibly.
func (s *bbSearch) lessSeq(seq []int) bool {
	a := make([]string, len(seq))
	for i, ni := range seq {
		a[i] = s.in.Nodes[ni].ev.ID
	}
	b := make([]string, len(s.best))
	for i, ni := range s.best {
		b[i] = s.in.Nodes[ni].ev.ID
	}
	return strings.Join(a, "\x00") < strings.Join(b, "\x00")
}
