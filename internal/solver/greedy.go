package solver

// tryInsert places node ni into route at the cheapest feasible position,
// measured by the increase in total travel seconds. Ties go to the earliest
// position so repeated runs build identical routes. Returns false when no
// position admits the node at the given dwell.
func tryInsert(in *Instance, route []routeVisit, ni, dwell int) ([]routeVisit, bool) {
	cand := routeVisit{node: ni, dwell: dwell}
	bestPos := -1
	bestDelta := 0

	base := -1
	for pos := 0; pos <= len(route); pos++ {
		trial := make([]routeVisit, 0, len(route)+1)
		trial = append(trial, route[:pos]...)
		trial = append(trial, cand)
		trial = append(trial, route[pos:]...)

		legs, ok := simulate(in, trial)
		if !ok {
			continue
		}
		if base < 0 {
			if cur, ok := simulate(in, route); ok {
				base = travelSum(in, route, cur)
			} else {
				base = 0
			}
		}
		delta := travelSum(in, trial, legs) - base
		if bestPos < 0 || delta < bestDelta {
			bestPos, bestDelta = pos, delta
		}
	}
	if bestPos < 0 {
		return route, false
	}

	out := make([]routeVisit, 0, len(route)+1)
	out = append(out, route[:bestPos]...)
	out = append(out, cand)
	out = append(out, route[bestPos:]...)
	return out, true
}

// insertAll greedily inserts candidates in order, collecting the ones that
// would not fit anywhere. The route keeps whatever it already holds.
func insertAll(in *Instance, route []routeVisit, candidates []int, dwellOf func(int) int) ([]routeVisit, []int) {
	var deferred []int
	for _, ni := range candidates {
		next, ok := tryInsert(in, route, ni, dwellOf(ni))
		if !ok {
			deferred = append(deferred, ni)
			continue
		}
		route = next
	}
	return route, deferred
}
