package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-engine/internal/adapters/cache"
	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/ports"
)

var (
	tripStart = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	origin    = domain.LatLng{Lat: 52.5200, Lng: 13.4050}
)

// at returns a clock offset from the trip start.
func at(d time.Duration) time.Time { return tripStart.Add(d) }

// ev builds an event latOff degrees north of the origin. One thousandth of a
// degree of latitude is roughly 111 m, about 80 s of walking.
func ev(id string, latOff float64, winStart, winEnd time.Time, dwellMin, dwellMax int, pop float64) domain.Event {
	return domain.Event{
		ID:          id,
		Venue:       domain.LatLng{Lat: origin.Lat + latOff, Lng: origin.Lng},
		VenueName:   id,
		WindowStart: winStart,
		WindowEnd:   winEnd,
		DwellMin:    dwellMin,
		DwellMax:    dwellMax,
		Popularity:  pop,
	}
}

func newTestEngine(cfg Config) *Engine {
	return NewEngine(travel.NewEstimateProvider(domain.DefaultWalkingSpeed), nil, cfg)
}

func baseRequest(events ...domain.Event) domain.SolveRequest {
	return domain.SolveRequest{
		Start:     origin,
		StartTime: tripStart,
		EndTime:   at(9 * time.Hour),
		Events:    events,
	}
}

func checkInvariants(t *testing.T, req domain.SolveRequest, resp *domain.SolveResponse) {
	t.Helper()
	require.NotNil(t, resp)
	assert.Equal(t, len(req.Events), resp.Metrics.Visited+resp.Metrics.Dropped,
		"every event is either visited or dropped")
	assert.Len(t, resp.Route, resp.Metrics.Visited)
	assert.Len(t, resp.Dropped, resp.Metrics.Dropped)
	require.NoError(t, validateSchedule(req, domain.Schedule{Visits: resp.Route}))
}

func TestSolveVisitsEverythingWhenItAllFits(t *testing.T) {
	req := baseRequest(
		ev("museum", 0.001, tripStart, at(9*time.Hour), 20, 40, 5),
		ev("market", 0.002, tripStart, at(9*time.Hour), 15, 30, 3),
		ev("gallery", 0.003, tripStart, at(9*time.Hour), 10, 20, 4),
	)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	assert.Equal(t, 3, resp.Metrics.Visited)
	assert.Empty(t, resp.Dropped)
	assert.Equal(t, domain.StagePrimary, resp.Metrics.Stage)
	assert.False(t, resp.Metrics.Degraded)
	assert.Positive(t, resp.Metrics.TotalWalkSec)

	// Venues sit on a line north of the start, so the cheapest tour visits
	// them in order of distance.
	require.Len(t, resp.Route, 3)
	assert.Equal(t, "museum", resp.Route[0].EventID)
	assert.Equal(t, "market", resp.Route[1].EventID)
	assert.Equal(t, "gallery", resp.Route[2].EventID)
}

func TestSolveDropsImpossibleWindowBeforeSearch(t *testing.T) {
	req := baseRequest(
		ev("keeper", 0.001, tripStart, at(9*time.Hour), 15, 30, 2),
		// Window opens five minutes before the trip ends; the 30 minute
		// minimum stay can never fit.
		ev("latecomer", 0.002, at(8*time.Hour+55*time.Minute), at(9*time.Hour+30*time.Minute), 30, 60, 9),
	)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "latecomer", resp.Dropped[0].EventID)
	assert.Equal(t, domain.DropWindowConflict, resp.Dropped[0].Reason)
	assert.Equal(t, 1, resp.Metrics.Visited)
}

func TestSolveDropsUnreachableBookedStart(t *testing.T) {
	// Roughly 5.5 km away: over an hour on foot, but the booked slot starts
	// ten minutes in.
	booked := ev("booked-tour", 0.05, at(10*time.Minute), at(2*time.Hour), 30, 60, 10)
	booked.BookingRequired = true

	req := baseRequest(
		booked,
		ev("nearby", 0.001, tripStart, at(9*time.Hour), 15, 30, 1),
	)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	require.Len(t, resp.Dropped, 1)
	assert.Equal(t, "booked-tour", resp.Dropped[0].EventID)
	assert.Equal(t, domain.DropBookingConflict, resp.Dropped[0].Reason)
}

func TestSolveKeepsReachableBookedStart(t *testing.T) {
	booked := ev("booked-tour", 0.001, at(30*time.Minute), at(2*time.Hour), 30, 60, 10)
	booked.BookingRequired = true

	req := baseRequest(booked)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	require.Len(t, resp.Route, 1)
	// A booked slot is entered exactly at its start.
	assert.True(t, resp.Route[0].Arrive.Equal(booked.WindowStart))
	assert.Positive(t, resp.Route[0].WaitSec)
}

func TestSolveShedsLoadUnderTightBudget(t *testing.T) {
	req := baseRequest(
		ev("a", 0.001, tripStart, at(time.Hour), 25, 40, 5),
		ev("b", 0.002, tripStart, at(time.Hour), 25, 40, 4),
		ev("c", 0.003, tripStart, at(time.Hour), 25, 40, 3),
		ev("d", 0.004, tripStart, at(time.Hour), 25, 40, 2),
	)
	req.EndTime = at(time.Hour)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	// One hour fits two 25 minute stays plus walking, never four.
	assert.Equal(t, 2, resp.Metrics.Visited)
	assert.Equal(t, 2, resp.Metrics.Dropped)
	for _, d := range resp.Dropped {
		assert.Contains(t,
			[]domain.DropReason{domain.DropTimeBudget, domain.DropLowPriority}, d.Reason)
	}
}

func TestSolveEmptyRouteIsTheFloor(t *testing.T) {
	req := baseRequest(
		ev("a", 0.001, tripStart, at(9*time.Hour), 30, 60, 5),
		ev("b", 0.002, tripStart, at(9*time.Hour), 30, 60, 4),
	)
	// Five minutes of trip cannot host a 30 minute stay.
	req.EndTime = at(5 * time.Minute)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	assert.Empty(t, resp.Route)
	assert.Len(t, resp.Dropped, 2)
}

func TestSolveRejectsUnrepairableInput(t *testing.T) {
	req := baseRequest(ev("a", 0.001, tripStart, at(time.Hour), 10, 20, 1))
	req.EndTime = tripStart.Add(-time.Hour)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrInfeasibleInput)
	assert.Nil(t, resp)
}

func TestSolveRespectsFixedEndLocation(t *testing.T) {
	end := domain.LatLng{Lat: origin.Lat + 0.002, Lng: origin.Lng}
	req := baseRequest(
		ev("a", 0.001, tripStart, at(2*time.Hour), 20, 40, 5),
	)
	req.End = &end
	req.EndTime = at(time.Hour)

	resp, err := newTestEngine(Config{}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	require.Len(t, resp.Route, 1)
	// Departure plus the final walk to the fixed end stays inside the trip.
	walkOut := int(domain.HaversineM(domain.LatLng{Lat: origin.Lat + 0.001, Lng: origin.Lng}, end) / domain.DefaultWalkingSpeed)
	assert.False(t, resp.Route[0].Depart.Add(time.Duration(walkOut)*time.Second).After(req.EndTime))
}

func TestSolveMoreTimeNeverVisitsLess(t *testing.T) {
	events := []domain.Event{
		ev("a", 0.001, tripStart, at(9*time.Hour), 30, 60, 5),
		ev("b", 0.002, tripStart, at(9*time.Hour), 30, 60, 4),
		ev("c", 0.003, tripStart, at(9*time.Hour), 30, 60, 3),
		ev("d", 0.004, tripStart, at(9*time.Hour), 30, 60, 2),
	}

	eng := newTestEngine(Config{})
	prev := -1
	for _, horizon := range []time.Duration{time.Hour, 2 * time.Hour, 4 * time.Hour, 9 * time.Hour} {
		req := baseRequest(events...)
		req.EndTime = at(horizon)

		resp, err := eng.Solve(context.Background(), req)
		require.NoError(t, err)
		checkInvariants(t, req, resp)

		assert.GreaterOrEqual(t, resp.Metrics.Visited, prev,
			"a later end time must never shrink the schedule (horizon %s)", horizon)
		prev = resp.Metrics.Visited
	}
}

func TestSolveIsDeterministic(t *testing.T) {
	req := baseRequest(
		ev("a", 0.001, tripStart, at(2*time.Hour), 20, 40, 3),
		ev("b", 0.0015, tripStart, at(2*time.Hour), 20, 40, 3),
		ev("c", 0.002, tripStart, at(2*time.Hour), 20, 40, 3),
	)
	req.EndTime = at(2 * time.Hour)

	eng := newTestEngine(Config{})
	first, err := eng.Solve(context.Background(), req)
	require.NoError(t, err)
	second, err := eng.Solve(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(first.Route), len(second.Route))
	for i := range first.Route {
		assert.Equal(t, first.Route[i].EventID, second.Route[i].EventID)
		assert.True(t, first.Route[i].Arrive.Equal(second.Route[i].Arrive))
	}
}

func TestPrimarySolverAbandonsSpentDeadline(t *testing.T) {
	req := baseRequest(
		ev("a", 0.001, tripStart, at(9*time.Hour), 20, 40, 5),
		ev("b", 0.002, tripStart, at(9*time.Hour), 15, 30, 3),
	)
	in := mustInstance(t, req)

	route, err := solvePrimary(context.Background(), in, time.Now().Add(-time.Millisecond))
	require.ErrorIs(t, err, errUnresolved, "a deadline in the past must abandon immediately")
	assert.Nil(t, route)
}

func TestDeadlineTiersScaleWithProblemSize(t *testing.T) {
	eng := newTestEngine(Config{})

	assert.Equal(t, 150*time.Millisecond, eng.deadlineFor(1))
	assert.Equal(t, 150*time.Millisecond, eng.deadlineFor(5))
	assert.Equal(t, 400*time.Millisecond, eng.deadlineFor(6))
	assert.Equal(t, 400*time.Millisecond, eng.deadlineFor(10))
	assert.Equal(t, 1200*time.Millisecond, eng.deadlineFor(11))
	assert.Equal(t, 1200*time.Millisecond, eng.deadlineFor(24))

	// An explicit budget overrides the tiers at every size.
	fixed := newTestEngine(Config{PrimaryBudget: time.Second})
	assert.Equal(t, time.Second, fixed.deadlineFor(1))
	assert.Equal(t, time.Second, fixed.deadlineFor(24))
}

func TestSolveIsIdempotentWithWarmCache(t *testing.T) {
	mem := cache.NewMemoryCache()
	cp := travel.NewCachedProvider(
		travel.NewEstimateProvider(domain.DefaultWalkingSpeed),
		mem,
		travel.NewEstimateProvider(domain.DefaultWalkingSpeed),
		"estimate")
	eng := NewEngine(cp, nil, Config{})

	req := baseRequest(
		ev("a", 0.001, tripStart, at(9*time.Hour), 20, 40, 5),
		ev("b", 0.002, tripStart, at(9*time.Hour), 15, 30, 3),
	)

	cold, err := eng.Solve(context.Background(), req)
	require.NoError(t, err)
	warm, err := eng.Solve(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(cold.Route), len(warm.Route))
	for i := range cold.Route {
		assert.Equal(t, cold.Route[i].EventID, warm.Route[i].EventID)
		assert.True(t, cold.Route[i].Arrive.Equal(warm.Route[i].Arrive))
		assert.Equal(t, cold.Route[i].TravelSecFromPrev, warm.Route[i].TravelSecFromPrev)
	}
	assert.Equal(t, cold.Metrics.TotalWalkSec, warm.Metrics.TotalWalkSec)
}

func TestSolveFallsBackWhenBudgetExpires(t *testing.T) {
	// A one-nanosecond budget is spent before the exact search can start,
	// so the whole solve runs through the fallback stages.
	var events []domain.Event
	for i := 0; i < 12; i++ {
		id := string(rune('a' + i))
		events = append(events, ev(id, 0.0005*float64(i+1), tripStart, at(12*time.Hour), 10, 20, float64(i)))
	}
	req := baseRequest(events...)
	req.EndTime = at(12 * time.Hour)

	resp, err := newTestEngine(Config{PrimaryBudget: time.Nanosecond}).Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	assert.NotEqual(t, domain.StagePrimary, resp.Metrics.Stage)
	assert.Contains(t, []string{
		domain.StageFallbackGreedy,
		domain.StageFallbackLocal,
		domain.StageFallbackCompressed,
		domain.StageFallbackDropped,
	}, resp.Metrics.Stage)
}

func TestSolveDegradesWhenProviderIsDown(t *testing.T) {
	broken := travel.NewMockProvider(nil)
	broken.Err = ports.ErrProviderUnavailable
	eng := NewEngine(broken, nil, Config{})

	req := baseRequest(
		ev("a", 0.001, tripStart, at(9*time.Hour), 20, 40, 5),
		ev("b", 0.002, tripStart, at(9*time.Hour), 20, 40, 3),
	)

	resp, err := eng.Solve(context.Background(), req)
	require.NoError(t, err)
	checkInvariants(t, req, resp)

	assert.Equal(t, 2, resp.Metrics.Visited)
	assert.True(t, resp.Metrics.Degraded, "estimate fallback must be reported")
}
