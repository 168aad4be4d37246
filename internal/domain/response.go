package domain

// Solve stages, reported in metrics so callers can tell how the answer was
// produced.
const (
	StagePrimary            = "primary"
	StageFallbackGreedy     = "fallback-greedy"
	StageFallbackLocal      = "fallback-local-search"
	StageFallbackCompressed = "fallback-compressed"
	StageFallbackDropped    = "fallback-dropped"
)

// SolveMetrics summarizes a single solve invocation.
// Degraded is set when travel times came from the estimate provider because
// the routed provider failed, so callers can communicate reduced precision.
type SolveMetrics struct {
	TotalWalkSec int    `json:"totalWalkSec"`
	Visited      int    `json:"visited"`
	Dropped      int    `json:"dropped"`
	SolveMs      int64  `json:"solveMs"`
	Stage        string `json:"stage"`
	Degraded     bool   `json:"degraded,omitempty"`
}

// SolveResponse is the engine's answer: the ordered route, the events that
// did not make it (with reasons), and solve metrics. By construction the
// engine always produces a response; an empty route with every event dropped
// is the guaranteed floor.
type SolveResponse struct {
	Route   []VisitRecord `json:"route"`
	Dropped []DropRecord  `json:"dropped"`
	Metrics SolveMetrics  `json:"metrics"`
}
