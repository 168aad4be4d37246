package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type ctxKey string

// SolveIDKey carries the per-request solve identifier through the pipeline.
const SolveIDKey ctxKey = "solve_id"

// SolveID extracts the solve identifier, if any.
func SolveID(ctx context.Context) string {
	id, _ := ctx.Value(SolveIDKey).(string)
	return id
}

// Time returns a deferred timing hook for an operation:
//
//	defer obs.Time(ctx, "solver.primary")(&err)
//
// It logs the operation duration and, when the pointed-at error is non-nil
// at defer time, the failure.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	solveID := SolveID(ctx)

	return func(errp *error) {
		ev := log.Info()
		if errp != nil && *errp != nil {
			ev = log.Warn().Err(*errp)
		}
		ev.Str("solve_id", solveID).
			Str("op", name).
			Int64("dur_ms", time.Since(start).Milliseconds()).
			Msg("op done")
	}
}
