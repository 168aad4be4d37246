package solver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"itinerary-engine/internal/adapters/travel"
	"itinerary-engine/internal/domain"
	"itinerary-engine/internal/platform/obs"
	"itinerary-engine/internal/ports"
)

// Engine is the itinerary optimizer. It owns a travel-time provider, an
// optional directions provider for per-leg polylines, and tuning knobs.
// One Engine serves concurrent solves; per-request state lives on the stack.
type Engine struct {
	provider   ports.TravelTimeProvider
	directions ports.DirectionsProvider
	cfg        Config
}

// NewEngine builds an engine. directions may be nil; responses then carry no
// polylines.
func NewEngine(provider ports.TravelTimeProvider, directions ports.DirectionsProvider, cfg Config) *Engine {
	return &Engine{provider: provider, directions: directions, cfg: cfg}
}

// deadlineFor scales the exact solver's wall-clock budget with problem size.
func (e *Engine) deadlineFor(n int) time.Duration {
	if e.cfg.PrimaryBudget > 0 {
		return e.cfg.PrimaryBudget
	}
	switch {
	case n <= 5:
		return 150 * time.Millisecond
	case n <= 10:
		return 400 * time.Millisecond
	default:
		return 1200 * time.Millisecond
	}
}

// Solve turns a request into a schedule. The only error it returns is an
// unrepairable request (wrapping domain.ErrInfeasibleInput) or a caller
// cancellation; provider failures and solver timeouts degrade internally and
// still produce a response, down to the empty-route floor.
func (e *Engine) Solve(ctx context.Context, req domain.SolveRequest) (*domain.SolveResponse, error) {
	started := time.Now()
	ctx = context.WithValue(ctx, obs.SolveIDKey, newSolveID())

	req = req.Normalized()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	estimate := travel.NewEstimateProvider(req.WalkingSpeed)
	kept, preDrops := prefilter(ctx, req, estimate)

	in, err := buildInstance(ctx, req, kept, e.provider, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	route, drops, stage := e.optimize(ctx, in)
	drops = append(preDrops, drops...)

	resp, err := e.buildResponse(ctx, in, route, drops, stage, started)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	return resp, nil
}

// optimize runs the exact solver under its budget and falls through to the
// heuristic when the budget expires.
func (e *Engine) optimize(ctx context.Context, in *Instance) ([]routeVisit, []domain.DropRecord, string) {
	deadline := time.Now().Add(e.deadlineFor(len(in.Nodes)))
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	route, err := solvePrimary(ctx, in, deadline)
	if err == nil {
		var drops []domain.DropRecord
		for ni := range in.Nodes {
			if !routeContains(route, ni) {
				drops = append(drops, classifyDrop(in, ni, route))
			}
		}
		return route, drops, domain.StagePrimary
	}
	if !errors.Is(err, errUnresolved) {
		log.Warn().Err(err).Msg("primary solver failed; running fallback")
	}

	res := runFallback(ctx, in, e.cfg)
	return res.route, res.drops, res.stage
}

func routeContains(route []routeVisit, ni int) bool {
	for _, v := range route {
		if v.node == ni {
			return true
		}
	}
	return false
}

func newSolveID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "solve-unknown"
	}
	return hex.EncodeToString(b)
}
