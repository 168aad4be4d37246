package solver

import (
	"context"
	"sort"

	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/platform/obs"
)

// fallbackResult carries the heuristic route plus the stage that produced it
// and the events dropped along the way.
type fallbackResult struct {
	route []routeVisit
	drops []domain.DropRecord
	stage string
}

// runFallback builds a schedule heuristically when the exact solver gave up.
// It escalates through four stages, each invoked only when the previous one
// left events unplaced: greedy insertion at full dwell, local-search
// reshuffling, dwell compression, and finally dropping the least popular
// leftover. The loop restarts after every drop, so it always terminates with
// every remaining candidate placed; the empty route is the floor.
func runFallback(ctx context.Context, in *Instance, cfg Config) (res fallbackResult) {
	defer obs.Time(ctx, "solver.fallback")(nil)

	candidates := make([]int, len(in.Nodes))
	for i := range candidates {
		candidates[i] = i
	}
	sort.Slice(candidates, func(a, b int) bool {
		na, nb := in.Nodes[candidates[a]], in.Nodes[candidates[b]]
		if na.ev.Popularity != nb.ev.Popularity {
			return na.ev.Popularity > nb.ev.Popularity
		}
		return na.ev.ID < nb.ev.ID
	})

	res.stage = domain.StageFallbackGreedy
	dropped := false

	for {
		route, deferred := insertAll(in, nil, candidates, func(ni int) int {
			return in.Nodes[ni].dwellMax
		})
		stage := domain.StageFallbackGreedy

		if len(deferred) > 0 {
			route = localSearch(in, route, cfg.localSearchPasses())
			route, deferred = insertAll(in, route, deferred, func(ni int) int {
				return in.Nodes[ni].dwellMax
			})
			stage = domain.StageFallbackLocal
		}
		if len(deferred) > 0 {
			route, deferred = compressAndInsert(in, route, deferred)
			stage = domain.StageFallbackCompressed
		}
		if len(deferred) == 0 {
			res.route = route
			if !dropped {
				res.stage = stage
			}
			return res
		}

		// Stage 4: shed the weakest still-unplaced event and start over.
		victim := deferred[0]
		for _, ni := range deferred[1:] {
			nv, nn := in.Nodes[victim], in.Nodes[ni]
			if nn.ev.Popularity < nv.ev.Popularity ||
				(nn.ev.Popularity == nv.ev.Popularity && nn.ev.ID < nv.ev.ID) {
				victim = ni
			}
		}
		res.drops = append(res.drops, classifyDrop(in, victim, route))
		candidates = removeInt(candidates, victim)
		dropped = true
		res.stage = domain.StageFallbackDropped
	}
}

// compressAndInsert tries the deferred events at their minimum dwell, and
// while any still fail it shortens the latest already-placed visit that has
// slack down to its minimum, one visit per attempt.
func compressAndInsert(in *Instance, route []routeVisit, deferred []int) ([]routeVisit, []int) {
	for {
		route, deferred = insertAll(in, route, deferred, func(ni int) int {
			return in.Nodes[ni].dwellMin
		})
		if len(deferred) == 0 {
			return route, nil
		}

		compressed := false
		for i := len(route) - 1; i >= 0; i-- {
			n := in.Nodes[route[i].node]
			if route[i].dwell > n.dwellMin {
				route[i].dwell = n.dwellMin
				compressed = true
				break
			}
		}
		if !compressed {
			return route, deferred
		}
	}
}

func removeInt(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
