package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
)

func mustInstance(t *testing.T, req domain.SolveRequest) *Instance {
	t.Helper()
	req = req.Normalized()
	require.NoError(t, req.Validate())
	estimate := travel.NewEstimateProvider(req.WalkingSpeed)
	kept, drops := prefilter(context.Background(), req, estimate)
	require.Empty(t, drops, "fixture events must survive the prefilter")
	in, err := buildInstance(context.Background(), req, kept, estimate, Config{})
	require.NoError(t, err)
	return in
}

func TestFallbackCompressesDwellToFitEverything(t *testing.T) {
	// Two hours of trip. At full dwell (60 min each) only two events fit;
	// at minimum dwell (30 min) all three do.
	req := baseRequest(
		ev("a", 0.001, tripStart, at(2*time.Hour), 30, 60, 3),
		ev("b", 0.002, tripStart, at(2*time.Hour), 30, 60, 2),
		ev("c", 0.003, tripStart, at(2*time.Hour), 30, 60, 1),
	)
	req.EndTime = at(2 * time.Hour)
	in := mustInstance(t, req)

	res := runFallback(context.Background(), in, Config{})

	assert.Len(t, res.route, 3)
	assert.Empty(t, res.drops)
	assert.Equal(t, domain.StageFallbackCompressed, res.stage)

	legs, ok := simulate(in, res.route)
	require.True(t, ok)
	assert.LessOrEqual(t, legs[len(legs)-1].depart, in.Horizon)

	// Placing everything beats paying three skip penalties.
	emptyLegs, ok := simulate(in, nil)
	require.True(t, ok)
	assert.Less(t, fullObjective(in, res.route, legs), fullObjective(in, nil, emptyLegs))
}

func TestFallbackDropsLeastPopularWhenNothingElseHelps(t *testing.T) {
	// Even at minimum dwell, one hour holds two of the three events.
	req := baseRequest(
		ev("headliner", 0.001, tripStart, at(time.Hour), 25, 25, 9),
		ev("opener", 0.002, tripStart, at(time.Hour), 25, 25, 5),
		ev("filler", 0.003, tripStart, at(time.Hour), 25, 25, 1),
	)
	req.EndTime = at(time.Hour)
	in := mustInstance(t, req)

	res := runFallback(context.Background(), in, Config{})

	assert.Len(t, res.route, 2)
	assert.Equal(t, domain.StageFallbackDropped, res.stage)
	require.Len(t, res.drops, 1)
	assert.Equal(t, "filler", res.drops[0].EventID)
}

func TestFallbackHandlesEmptyCandidates(t *testing.T) {
	req := baseRequest(ev("a", 0.001, tripStart, at(time.Hour), 10, 20, 1))
	in := mustInstance(t, req)
	in.Nodes = nil

	res := runFallback(context.Background(), in, Config{})
	assert.Empty(t, res.route)
	assert.Empty(t, res.drops)
	assert.Equal(t, domain.StageFallbackGreedy, res.stage)
}

func TestObjectiveChargesNoLatenessOnAcceptedRoutes(t *testing.T) {
	lateOpening := ev("slot", 0.002, at(time.Hour), at(3*time.Hour), 20, 40, 4)
	req := baseRequest(
		ev("first", 0.001, tripStart, at(9*time.Hour), 20, 40, 5),
		lateOpening,
	)
	in := mustInstance(t, req)

	route := []routeVisit{
		{node: 0, dwell: in.Nodes[0].dwellMin},
		{node: 1, dwell: in.Nodes[1].dwellMin},
	}
	legs, ok := simulate(in, route)
	require.True(t, ok)

	// Simulate only accepts on-time arrivals, so the score decomposes into
	// walking, waiting, and the popularity bonus alone.
	want := 0.0
	for i, v := range route {
		want += float64(legs[i].travel)*in.W.Walk +
			float64(legs[i].wait)*in.W.WaitPenalty -
			in.Nodes[v.node].ev.Popularity*in.W.VisitedBonus
	}
	assert.InDelta(t, want, objective(in, route, legs), 1e-9)
}

func TestLocalSearchOnlyAcceptsFeasibleImprovements(t *testing.T) {
	req := baseRequest(
		ev("near", 0.001, tripStart, at(4*time.Hour), 15, 30, 1),
		ev("mid", 0.002, tripStart, at(4*time.Hour), 15, 30, 1),
		ev("far", 0.003, tripStart, at(4*time.Hour), 15, 30, 1),
	)
	req.EndTime = at(4 * time.Hour)
	in := mustInstance(t, req)

	// Start from the deliberately worst order.
	start := []routeVisit{
		{node: 2, dwell: in.Nodes[2].dwellMin},
		{node: 0, dwell: in.Nodes[0].dwellMin},
		{node: 1, dwell: in.Nodes[1].dwellMin},
	}
	startLegs, ok := simulate(in, start)
	require.True(t, ok)

	improved := localSearch(in, start, 64)
	legs, ok := simulate(in, improved)
	require.True(t, ok)
	assert.Less(t, objective(in, improved, legs), objective(in, start, startLegs))
	assert.Equal(t, []int{0, 1, 2}, []int{improved[0].node, improved[1].node, improved[2].node},
		"venues on a line sort by distance after local search")
}
