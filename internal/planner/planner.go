package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/raedapplebanon-spec/route-map/internal/directions"
	"github.com/raedapplebanon-spec/route-map/internal/geo"
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// Strategy controls how assistant stops are kept at the ends of the waypoint list.
type Strategy string

const (
	// StrategyTwoPhase optimizes free stops alone, then requests the locked
	// sequence. Assistants can never be moved by the provider.
	StrategyTwoPhase Strategy = "two-phase"
	// StrategySinglePhase sends one optimized request with the full list and
	// applies whatever order the provider returns.
	StrategySinglePhase Strategy = "single-phase"
)

// DefaultMatchToleranceDegrees is the coordinate tolerance used to map
// returned waypoints back to clusters.
const DefaultMatchToleranceDegrees = 1e-4

// Options configures a Planner.
type Options struct {
	Strategy              Strategy
	MatchToleranceDegrees float64
	Timeout               time.Duration
}

// PlannedRoute is the outcome of a successful planning cycle.
type PlannedRoute struct {
	Strategy    Strategy         `json:"strategy"`
	Origin      models.Cluster   `json:"origin"`
	Destination models.Cluster   `json:"destination"`
	Waypoints   []models.Cluster `json:"waypoints"`
	// Labels maps a cluster index to its 1-based position among the waypoints.
	Labels          map[int]int      `json:"labels"`
	Legs            []directions.Leg `json:"legs"`
	DistanceMeters  float64          `json:"distanceMeters"`
	DurationSeconds float64          `json:"durationSeconds"`
	Summary         Summary          `json:"summary"`
}

// Stops returns origin, waypoints and destination in visiting order.
func (r *PlannedRoute) Stops() []models.Cluster {
	out := make([]models.Cluster, 0, len(r.Waypoints)+2)
	out = append(out, r.Origin)
	out = append(out, r.Waypoints...)
	return append(out, r.Destination)
}

// Planner turns route clusters into an ordered, routed waypoint sequence.
type Planner struct {
	Directions directions.Service
	Options    Options
	Logger     *slog.Logger
}

func NewPlanner(svc directions.Service, opts Options, logger *slog.Logger) *Planner {
	if opts.Strategy != StrategySinglePhase {
		opts.Strategy = StrategyTwoPhase
	}
	if !(opts.MatchToleranceDegrees > 0) {
		opts.MatchToleranceDegrees = DefaultMatchToleranceDegrees
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{Directions: svc, Options: opts, Logger: logger}
}

// Plan computes the route through clusters. It returns an error wrapping
// ErrNoRoute when routing is skipped and a *RoutingError when the provider
// fails.
func (p *Planner) Plan(ctx context.Context, clusters []models.Cluster) (*PlannedRoute, error) {
	anchors, err := FindAnchors(clusters)
	if err != nil {
		return nil, err
	}

	if p.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.Timeout)
		defer cancel()
	}

	var route *PlannedRoute
	switch p.Options.Strategy {
	case StrategySinglePhase:
		route, err = p.planSinglePhase(ctx, anchors)
	default:
		route, err = p.planTwoPhase(ctx, anchors)
	}
	if err != nil {
		return nil, err
	}

	route.Strategy = p.Options.Strategy
	route.Labels = MatchLabels(route.Waypoints, clusters, p.Options.MatchToleranceDegrees)
	route.DistanceMeters, route.DurationSeconds = Totals(route.Legs)
	route.Summary = Summarize(route.DistanceMeters, route.DurationSeconds)

	p.Logger.Info("route planned",
		"strategy", route.Strategy,
		"waypoints", len(route.Waypoints),
		"distance_km", route.Summary.DistanceKm,
		"duration_minutes", route.Summary.DurationMinutes)
	return route, nil
}

func (p *Planner) planTwoPhase(ctx context.Context, a *Anchors) (*PlannedRoute, error) {
	orderedFree := a.Free
	if len(a.Free) > 0 {
		resp, err := p.Directions.Route(ctx, &directions.Request{
			Origin:            a.VirtualOrigin().Coords(),
			Destination:       a.VirtualDestination().Coords(),
			Waypoints:         coordinates(a.Free),
			Mode:              directions.ModeDriving,
			OptimizeWaypoints: true,
		})
		if err != nil {
			return nil, &RoutingError{Phase: PhaseOptimize, Err: err}
		}
		orderedFree, err = applyOrder(a.Free, resp.WaypointOrder)
		if err != nil {
			return nil, &RoutingError{Phase: PhaseOptimize, Err: err}
		}
	}

	waypoints := a.Waypoints(orderedFree)
	resp, err := p.Directions.Route(ctx, &directions.Request{
		Origin:      a.Start.Coords(),
		Destination: a.End.Coords(),
		Waypoints:   coordinates(waypoints),
		Mode:        directions.ModeDriving,
	})
	if err != nil {
		return nil, &RoutingError{Phase: PhaseFinal, Err: err}
	}

	return &PlannedRoute{
		Origin:      *a.Start,
		Destination: *a.End,
		Waypoints:   waypoints,
		Legs:        resp.Legs,
	}, nil
}

func (p *Planner) planSinglePhase(ctx context.Context, a *Anchors) (*PlannedRoute, error) {
	requested := a.Waypoints(a.Free)
	resp, err := p.Directions.Route(ctx, &directions.Request{
		Origin:            a.Start.Coords(),
		Destination:       a.End.Coords(),
		Waypoints:         coordinates(requested),
		Mode:              directions.ModeDriving,
		OptimizeWaypoints: true,
	})
	if err != nil {
		return nil, &RoutingError{Phase: PhaseFinal, Err: err}
	}

	waypoints, err := applyOrder(requested, resp.WaypointOrder)
	if err != nil {
		return nil, &RoutingError{Phase: PhaseFinal, Err: err}
	}

	return &PlannedRoute{
		Origin:      *a.Start,
		Destination: *a.End,
		Waypoints:   waypoints,
		Legs:        resp.Legs,
	}, nil
}

// applyOrder reorders clusters by order. A missing order means the provider
// kept the request order.
func applyOrder(clusters []models.Cluster, order []int) ([]models.Cluster, error) {
	if len(order) == 0 {
		order = directions.IdentityOrder(len(clusters))
	}
	if err := directions.ValidateOrder(order, len(clusters)); err != nil {
		return nil, fmt.Errorf("invalid waypoint order: %w", err)
	}
	out := make([]models.Cluster, len(order))
	for pos, idx := range order {
		out[pos] = clusters[idx]
	}
	return out, nil
}

// MatchLabels assigns each waypoint's 1-based sequence number to the nearest
// cluster whose latitude and longitude both differ by less than tolerance.
// Waypoints with no such cluster get no label.
func MatchLabels(waypoints, clusters []models.Cluster, tolerance float64) map[int]int {
	labels := make(map[int]int, len(waypoints))
	for seq, wp := range waypoints {
		best := -1
		bestDistance := math.Inf(1)
		for i := range clusters {
			if !geo.WithinDegrees(wp.Coords(), clusters[i].Coords(), tolerance) {
				continue
			}
			d := geo.Distance(wp.Coords(), clusters[i].Coords())
			if d < bestDistance {
				best = i
				bestDistance = d
			}
		}
		if best >= 0 {
			labels[clusters[best].Index] = seq + 1
		}
	}
	return labels
}
