package planner

import (
	"errors"
	"fmt"
)

// ErrNoRoute means the clusters do not describe a routable trip. It is an
// expected outcome, not a failure.
var ErrNoRoute = errors.New("no route")

var (
	ErrTooFewClusters = fmt.Errorf("%w: fewer than two clusters", ErrNoRoute)
	ErrMissingStart   = fmt.Errorf("%w: no start cluster", ErrNoRoute)
	ErrMissingEnd     = fmt.Errorf("%w: no final cluster", ErrNoRoute)
)

// Planning phases reported by RoutingError.
const (
	PhaseOptimize = "optimize"
	PhaseFinal    = "final"
)

// RoutingError is returned when a routing call fails or returns an unusable
// answer. No partial route is produced.
type RoutingError struct {
	Phase string
	Err   error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing request failed during %s phase: %v", e.Phase, e.Err)
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}
