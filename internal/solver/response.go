package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"itinerary-engine/internal/domain"
)

// buildResponse turns a relative-offset route back into absolute timestamps
// and attaches per-leg polylines when a directions provider is configured.
// Directions failures are logged and leave the leg without a polyline.
func (e *Engine) buildResponse(
	ctx context.Context,
	in *Instance,
	route []routeVisit,
	drops []domain.DropRecord,
	stage string,
	started time.Time,
) (*domain.SolveResponse, error) {
	legs, ok := simulate(in, route)
	if !ok {
		return nil, fmt.Errorf("build response: final route failed simulation")
	}

	visits := make([]domain.VisitRecord, len(route))
	prev := in.Req.Start
	for i, v := range route {
		n := in.Nodes[v.node]
		lt := legs[i]

		rec := domain.VisitRecord{
			EventID:           n.ev.ID,
			Arrive:            in.Req.StartTime.Add(secDuration(lt.arrive)),
			Depart:            in.Req.StartTime.Add(secDuration(lt.depart)),
			DwellSec:          v.dwell,
			TravelSecFromPrev: lt.travel,
			WaitSec:           lt.wait,
		}
		venue := in.Points[matrixIdx(v.node)]
		if e.directions != nil {
			dir, err := e.directions.Directions(ctx, prev, venue)
			if err != nil {
				log.Warn().Err(err).Str("event_id", n.ev.ID).Msg("directions lookup failed; leg has no polyline")
			} else {
				rec.Polyline = dir.Polyline
			}
		}
		visits[i] = rec
		prev = venue
	}

	sched := domain.Schedule{Visits: visits}
	if err := validateSchedule(in.Req, sched); err != nil {
		return nil, fmt.Errorf("build response: %w", err)
	}

	return &domain.SolveResponse{
		Route:   visits,
		Dropped: drops,
		Metrics: domain.SolveMetrics{
			TotalWalkSec: sched.TotalWalkSec(),
			Visited:      len(visits),
			Dropped:      len(drops),
			SolveMs:      time.Since(started).Milliseconds(),
			Stage:        stage,
			Degraded:     in.Degraded,
		},
	}, nil
}
