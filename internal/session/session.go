package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/geo"
	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/models"
	"github.com/raedapplebanon-spec/route-map/internal/picker"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
	"github.com/raedapplebanon-spec/route-map/internal/report"
)

// State is the planning state of the current generation.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateSkipped    State = "skipped"
)

// Terminal reports whether planning for the generation has finished.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateSkipped
}

// RouteData is the payload of one set-route-data call.
type RouteData struct {
	Route     []models.Stop `json:"route"`
	Available []models.Stop `json:"available"`
}

// Snapshot is the rendered state of a session. Snapshots are immutable once
// published; every change publishes a new one.
type Snapshot struct {
	Generation   uint64                           `json:"generation"`
	Ready        bool                             `json:"ready"`
	State        State                            `json:"state"`
	Reason       string                           `json:"reason,omitempty"`
	Markers      []Marker                         `json:"markers"`
	Route        *planner.PlannedRoute            `json:"route,omitempty"`
	Summary      *planner.Summary                 `json:"summary,omitempty"`
	Bounds       *geo.BoundingBox                 `json:"bounds,omitempty"`
	FitBounds    bool                             `json:"fitBounds"`
	InvalidStops map[string][]cluster.InvalidStop `json:"invalidStops,omitempty"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}

// Session is the server side of one map widget. Data sent before the widget
// is ready is held in a single slot; each accepted update starts a new
// generation and routing results of older generations are discarded.
type Session struct {
	ID     string
	Picker *picker.Picker

	clusterer *cluster.Clusterer
	planner   *planner.Planner
	logger    *slog.Logger

	mu         sync.Mutex
	ready      bool
	closed     bool
	pending    *RouteData
	generation uint64
	cancel     context.CancelFunc
	fitted     bool
	snapshot   *Snapshot
	changed    chan struct{}
}

func New(id string, clusterer *cluster.Clusterer, p *planner.Planner, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		ID:        id,
		Picker:    picker.New(),
		clusterer: clusterer,
		planner:   p,
		logger:    logger.With("session_id", id),
		snapshot:  &Snapshot{State: StateIdle, Markers: []Marker{}, UpdatedAt: time.Now()},
		changed:   make(chan struct{}),
	}
}

// Ready marks the rendering surface as available. The first call replays
// the held payload, if any, and reports whether it did; later calls do nothing.
func (s *Session) Ready() bool {
	s.Picker.Ready()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready || s.closed {
		return false
	}
	s.ready = true

	pending := s.pending
	s.pending = nil
	if pending == nil {
		s.publish(s.withReady())
		return false
	}

	s.logger.Info("replaying buffered route data")
	s.apply(*pending)
	return true
}

func (s *Session) withReady() *Snapshot {
	next := *s.snapshot
	next.Ready = true
	next.UpdatedAt = time.Now()
	return &next
}

// SetRouteData accepts new stop lists. Before Ready the payload replaces any
// held one and buffered is true. The returned generation is the one the
// payload is (or will be) rendered under.
func (s *Session) SetRouteData(data RouteData) (generation uint64, buffered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		s.pending = &data
		return s.generation + 1, true
	}
	if s.closed {
		return s.generation, false
	}
	return s.apply(data), false
}

// apply renders data under a new generation and starts planning. Callers hold s.mu.
func (s *Session) apply(data RouteData) uint64 {
	s.generation++
	gen := s.generation

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	routeResult := s.clusterer.Cluster(data.Route)
	availableResult := s.clusterer.Cluster(data.Available)
	metrics.RecordClustering(ListRoute, len(data.Route), len(routeResult.Invalid), len(routeResult.Clusters))
	metrics.RecordClustering(ListAvailable, len(data.Available), len(availableResult.Invalid), len(availableResult.Clusters))

	markers := append(BuildMarkers(ListRoute, routeResult.Clusters), BuildMarkers(ListAvailable, availableResult.Clusters)...)

	next := &Snapshot{
		Generation: gen,
		Ready:      true,
		Markers:    markers,
		UpdatedAt:  time.Now(),
	}
	if len(routeResult.Invalid) > 0 || len(availableResult.Invalid) > 0 {
		next.InvalidStops = map[string][]cluster.InvalidStop{}
		if len(routeResult.Invalid) > 0 {
			next.InvalidStops[ListRoute] = routeResult.Invalid
		}
		if len(availableResult.Invalid) > 0 {
			next.InvalidStops[ListAvailable] = availableResult.Invalid
		}
	}
	if bbox, err := geo.ComputeBoundingBox(markerCoordinates(markers)); err == nil {
		next.Bounds = &bbox
		if !s.fitted {
			next.FitBounds = true
			s.fitted = true
		}
	}

	if len(routeResult.Clusters) < 2 {
		next.State = StateSkipped
		next.Reason = planner.ErrTooFewClusters.Error()
		metrics.RecordPlanOutcome(string(StateSkipped), string(s.planner.Options.Strategy), 0, 0)
		s.publish(next)
		return gen
	}

	next.State = StateRequesting
	s.publish(next)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.plan(ctx, gen, routeResult.Clusters)

	return gen
}

func (s *Session) plan(ctx context.Context, gen uint64, clusters []models.Cluster) {
	route, err := s.planner.Plan(ctx, clusters)
	s.complete(gen, route, err)
}

// complete applies a planning result if it still belongs to the current generation.
func (s *Session) complete(gen uint64, route *planner.PlannedRoute, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		metrics.StaleResponses.Inc()
		s.logger.Debug("discarding stale routing result", "generation", gen, "current", s.generation)
		return
	}
	s.cancel = nil

	strategy := string(s.planner.Options.Strategy)
	next := *s.snapshot
	next.UpdatedAt = time.Now()

	switch {
	case err == nil:
		next.State = StateSucceeded
		next.Route = route
		summary := route.Summary
		next.Summary = &summary
		next.Markers = applyLabels(s.snapshot.Markers, route.Labels)
		metrics.RecordPlanOutcome(string(StateSucceeded), strategy, summary.DistanceKm, summary.DurationMinutes)

	case errors.Is(err, planner.ErrNoRoute):
		next.State = StateSkipped
		next.Reason = err.Error()
		metrics.RecordPlanOutcome(string(StateSkipped), strategy, 0, 0)
		s.logger.Info("route planning skipped", "generation", gen, "reason", err)

	default:
		next.State = StateFailed
		next.Reason = err.Error()
		metrics.RecordPlanOutcome(string(StateFailed), strategy, 0, 0)
		s.logger.Warn("route planning failed", "generation", gen, "error", err)
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags: map[string]string{
				"session_id": s.ID,
				"provider":   s.providerName(),
			},
			ExtraContext: map[string]interface{}{
				"generation": gen,
				"markers":    len(s.snapshot.Markers),
			},
			Level: sentry.LevelWarning,
		})
	}

	s.publish(&next)
}

func (s *Session) providerName() string {
	if s.planner.Directions == nil {
		return "none"
	}
	return s.planner.Directions.Name()
}

// publish replaces the snapshot and wakes waiters. Callers hold s.mu.
func (s *Session) publish(next *Snapshot) {
	s.snapshot = next
	close(s.changed)
	s.changed = make(chan struct{})
}

// Snapshot returns the current rendered state.
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Await blocks until generation is no longer being planned, then returns
// the snapshot at that time. A superseded generation, or generation 0 before
// any data arrived, returns immediately.
func (s *Session) Await(ctx context.Context, generation uint64) (*Snapshot, error) {
	for {
		s.mu.Lock()
		snap, changed := s.snapshot, s.changed
		s.mu.Unlock()

		if snap.Generation > generation || (snap.Generation == generation && snap.State != StateRequesting) {
			return snap, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops any in-flight planning. Later results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
