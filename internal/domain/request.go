package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInfeasibleInput marks a request that no amount of event dropping can
// repair (end before start, inverted dwell range, and so on). It is the only
// error surfaced to callers of the engine; every other condition resolves to
// a successful response with events in the drop list.
var ErrInfeasibleInput = errors.New("infeasible input")

// Objective weights applied by the solver. All terms are in seconds except
// VisitedBonus, which scales event popularity.
type Weights struct {
	Walk         float64 `json:"walk"`
	VisitedBonus float64 `json:"visitedBonus"`
	LatePenalty  float64 `json:"latePenalty"`
	WaitPenalty  float64 `json:"waitPenalty"`
}

// DefaultWeights returns the documented objective defaults.
func DefaultWeights() Weights {
	return Weights{Walk: 1.0, VisitedBonus: 0.4, LatePenalty: 2.0, WaitPenalty: 0.3}
}

// DefaultWalkingSpeed is the assumed walking pace in m/s (used only by the
// estimate travel provider).
const DefaultWalkingSpeed = 1.35

// Walking speed sanity bounds, in m/s.
const (
	minWalkingSpeed = 0.05
	maxWalkingSpeed = 3.0
)

// MaxEvents caps the number of events accepted in a single solve request.
const MaxEvents = 24

// SolveRequest is the single entry contract of the itinerary engine.
// End is optional: when nil the trip is open-ended and finishes wherever the
// last visit happens to be. EndTime is a hard upper bound on departure from
// the final visited event.
type SolveRequest struct {
	Start        LatLng    `json:"start"`
	StartTime    time.Time `json:"startTime"`
	End          *LatLng   `json:"end,omitempty"`
	EndTime      time.Time `json:"endTime"`
	WalkingSpeed float64   `json:"walkingSpeed,omitempty"`
	Weights      *Weights  `json:"weights,omitempty"`
	Events       []Event   `json:"events"`
}

// Normalized returns a copy with defaults applied for optional fields.
func (r SolveRequest) Normalized() SolveRequest {
	out := r
	if out.WalkingSpeed == 0 {
		out.WalkingSpeed = DefaultWalkingSpeed
	}
	if out.Weights == nil {
		w := DefaultWeights()
		out.Weights = &w
	}
	return out
}

// Validate rejects requests that cannot be repaired by dropping events.
// All returned errors wrap ErrInfeasibleInput.
func (r SolveRequest) Validate() error {
	if !r.Start.Valid() {
		return fmt.Errorf("%w: start coordinates out of range", ErrInfeasibleInput)
	}
	if r.End != nil && !r.End.Valid() {
		return fmt.Errorf("%w: end coordinates out of range", ErrInfeasibleInput)
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInfeasibleInput)
	}
	if !r.EndTime.After(r.StartTime) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInfeasibleInput)
	}
	if r.WalkingSpeed != 0 && (r.WalkingSpeed <= minWalkingSpeed || r.WalkingSpeed > maxWalkingSpeed) {
		return fmt.Errorf("%w: walkingSpeed %.2f m/s outside (%.2f, %.1f]",
			ErrInfeasibleInput, r.WalkingSpeed, minWalkingSpeed, maxWalkingSpeed)
	}
	if len(r.Events) > MaxEvents {
		return fmt.Errorf("%w: %d events exceeds the limit of %d", ErrInfeasibleInput, len(r.Events), MaxEvents)
	}

	seen := make(map[string]struct{}, len(r.Events))
	for _, ev := range r.Events {
		if ev.ID == "" {
			return fmt.Errorf("%w: event with empty id", ErrInfeasibleInput)
		}
		if _, ok := seen[ev.ID]; ok {
			return fmt.Errorf("%w: duplicate event id %q", ErrInfeasibleInput, ev.ID)
		}
		seen[ev.ID] = struct{}{}

		if !ev.Venue.Valid() {
			return fmt.Errorf("%w: event %q venue coordinates out of range", ErrInfeasibleInput, ev.ID)
		}
		if ev.WindowStart.IsZero() || ev.WindowEnd.IsZero() || ev.WindowEnd.Before(ev.WindowStart) {
			return fmt.Errorf("%w: event %q has an invalid time window", ErrInfeasibleInput, ev.ID)
		}
		if ev.DwellMin <= 0 || ev.DwellMax < ev.DwellMin {
			return fmt.Errorf("%w: event %q dwell range [%d, %d] is invalid",
				ErrInfeasibleInput, ev.ID, ev.DwellMin, ev.DwellMax)
		}
		if ev.Popularity < 0 {
			return fmt.Errorf("%w: event %q has negative popularity", ErrInfeasibleInput, ev.ID)
		}
	}

	return nil
}
