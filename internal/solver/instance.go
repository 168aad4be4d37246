package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/platform/obs"
	"itinerary-engine/internal/ports"
)

// Config tunes the solver. The zero value selects documented defaults.
type Config struct {
	// SkipPenalty is the objective cost of leaving an event unvisited.
	// Zero selects max(3000, 4*horizonSeconds).
	SkipPenalty float64
	// LocalSearchPasses caps fallback local-search iterations.
	// Zero selects 64.
	LocalSearchPasses int
	// Deadline overrides for the primary solver's wall-clock budget.
	// Zero selects the size-scaled tiers (150ms/400ms/1200ms).
	PrimaryBudget time.Duration
}

func (c Config) localSearchPasses() int {
	if c.LocalSearchPasses > 0 {
		return c.LocalSearchPasses
	}
	return 64
}

// node is an event prepared for search: its window translated into offset
// seconds from the trip start, with the trip's end bound already folded in.
type node struct {
	ev domain.Event
	// matrix index is nodes-index + 1; 0 is the start depot.
	twStart      int // earliest arrival offset (clamped at 0)
	rawStart     int // window start offset, unclamped (booking cap)
	latestDepart int // min(windowEnd, endTime) as an offset
	dwellMin     int // seconds
	dwellMax     int // seconds
}

// latestArrive is the latest feasible arrival offset for a given dwell.
// Booking-required events must be entered by their booked start.
func (n node) latestArrive(dwellSec int) int {
	la := n.latestDepart - dwellSec
	if n.ev.BookingRequired && n.rawStart < la {
		la = n.rawStart
	}
	return la
}

// Instance is the immutable problem shared by every solve stage: the
// surviving events, the prefetched travel matrix, and the objective weights.
type Instance struct {
	Req     domain.SolveRequest
	Nodes   []node
	Points  []domain.LatLng // matrix order: start, events..., optional end
	Sec     [][]int
	Meters  [][]int
	Horizon int // trip length in seconds
	HasEnd  bool
	EndIdx  int // matrix index of the end depot; -1 when open-ended
	W       domain.Weights
	SkipPen float64
	// Degraded is set when any travel leg came from the estimate fallback
	// after a routed-provider failure.
	Degraded bool
}

// matrixIdx converts a node index to its travel-matrix index.
func matrixIdx(nodeIdx int) int { return nodeIdx + 1 }

// buildInstance prefetches the full pairwise travel matrix (bounded
// concurrent lookups happen inside the provider) and translates event
// windows into solver offsets. A provider failure here is recovered with the
// estimate provider; it never fails the solve.
func buildInstance(
	ctx context.Context,
	req domain.SolveRequest,
	kept []domain.Event,
	provider ports.TravelTimeProvider,
	cfg Config,
) (_ *Instance, err error) {
	defer obs.Time(ctx, "solver.build_instance")(&err)

	horizon := int(req.EndTime.Sub(req.StartTime).Seconds())

	points := make([]domain.LatLng, 0, len(kept)+2)
	points = append(points, req.Start)
	for _, ev := range kept {
		points = append(points, ev.Venue)
	}
	hasEnd := req.End != nil
	endIdx := -1
	if hasEnd {
		points = append(points, *req.End)
		endIdx = len(points) - 1
	}

	m, err := provider.Matrix(ctx, points, req.StartTime)
	if err != nil {
		// Degraded-result condition, not a solve failure.
		log.Warn().Err(err).Msg("travel matrix prefetch failed; using estimate matrix")
		estimate := travel.NewEstimateProvider(req.WalkingSpeed)
		m, err = estimate.Matrix(ctx, points, req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("build instance: estimate matrix: %w", err)
		}
		if _, isEstimate := provider.(*travel.EstimateProvider); !isEstimate {
			m.Degraded = true
		}
	}

	nodes := make([]node, 0, len(kept))
	for _, ev := range kept {
		startOff := int(ev.WindowStart.Sub(req.StartTime).Seconds())
		endOff := int(ev.WindowEnd.Sub(req.StartTime).Seconds())
		latestDepart := endOff
		if latestDepart > horizon {
			latestDepart = horizon
		}
		tw := startOff
		if tw < 0 {
			tw = 0
		}
		nodes = append(nodes, node{
			ev:           ev,
			twStart:      tw,
			rawStart:     startOff,
			latestDepart: latestDepart,
			dwellMin:     ev.DwellMinSec(),
			dwellMax:     ev.DwellMaxSec(),
		})
	}

	skipPen := cfg.SkipPenalty
	if skipPen == 0 {
		skipPen = float64(4 * horizon)
		if skipPen < 3000 {
			skipPen = 3000
		}
	}

	return &Instance{
		Req:      req,
		Nodes:    nodes,
		Points:   points,
		Sec:      m.Seconds,
		Meters:   m.Meters,
		Horizon:  horizon,
		HasEnd:   hasEnd,
		EndIdx:   endIdx,
		W:        *req.Weights,
		SkipPen:  skipPen,
		Degraded: m.Degraded,
	}, nil
}
