package solver

// localSearch polishes a route with 2-opt segment reversals and or-opt
// single-visit relocations. Only strictly improving, feasible moves are
// taken (first improvement), and the walk restarts after each accepted move
// until a full pass finds nothing or the pass cap is reached.
func localSearch(in *Instance, route []routeVisit, maxPasses int) []routeVisit {
	if len(route) < 2 {
		return route
	}
	legs, ok := simulate(in, route)
	if !ok {
		return route
	}
	cost := objective(in, route, legs)

	for pass := 0; pass < maxPasses; pass++ {
		next, nextCost, improved := improveOnce(in, route, cost)
		if !improved {
			break
		}
		route, cost = next, nextCost
	}
	return route
}

func improveOnce(in *Instance, route []routeVisit, cost float64) ([]routeVisit, float64, bool) {
	// 2-opt: reverse route[i:j+1].
	for i := 0; i < len(route)-1; i++ {
		for j := i + 1; j < len(route); j++ {
			trial := reversedSegment(route, i, j)
			if c, ok := feasibleCost(in, trial); ok && c < cost-costEps {
				return trial, c, true
			}
		}
	}
	// Or-opt: relocate a single visit.
	for i := 0; i < len(route); i++ {
		for j := 0; j < len(route); j++ {
			if j == i {
				continue
			}
			trial := relocated(route, i, j)
			if c, ok := feasibleCost(in, trial); ok && c < cost-costEps {
				return trial, c, true
			}
		}
	}
	return route, cost, false
}

func feasibleCost(in *Instance, route []routeVisit) (float64, bool) {
	legs, ok := simulate(in, route)
	if !ok {
		return 0, false
	}
	return objective(in, route, legs), true
}

func reversedSegment(route []routeVisit, i, j int) []routeVisit {
	out := make([]routeVisit, len(route))
	copy(out, route)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func relocated(route []routeVisit, from, to int) []routeVisit {
	out := make([]routeVisit, 0, len(route))
	out = append(out, route...)
	v := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]routeVisit{v}, out[to:]...)...)
	return out
}
