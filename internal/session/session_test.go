package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/directions"
	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/models"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
)

// fakeDirections answers every request with one 1km/1min leg per segment.
// When gates is set, the n-th call waits for gates[n] to be closed first.
type fakeDirections struct {
	mu    sync.Mutex
	calls int
	gates map[int]chan struct{}
	err   error
}

func (f *fakeDirections) Name() string { return "fake" }

func (f *fakeDirections) Route(ctx context.Context, req *directions.Request) (*directions.Response, error) {
	f.mu.Lock()
	n := f.calls
	f.calls++
	gate := f.gates[n]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return nil, f.err
	}

	resp := &directions.Response{}
	for i := 0; i <= len(req.Waypoints); i++ {
		resp.Legs = append(resp.Legs, directions.Leg{DistanceMeters: 1000, DurationSeconds: 60})
	}
	return resp, nil
}

func newTestSession(svc directions.Service) *Session {
	return New("test", cluster.NewClusterer(cluster.DefaultOptions(), nil), planner.NewPlanner(svc, planner.Options{}, nil), nil)
}

func awaitGeneration(t *testing.T, s *Session, gen uint64) *Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.Await(ctx, gen)
	require.NoError(t, err)
	return snap
}

func routeStops() []models.Stop {
	return []models.Stop{
		{Lat: 31.95, Lng: 35.91, IsStart: true, StudentName: "School"},
		{Lat: 31.96, Lng: 35.90, StopType: "assistant", TimeShift: "AM", StudentName: "Assistant"},
		{Lat: 31.97, Lng: 35.89, StudentName: "Lina", GradeName: "5", SectionName: "B"},
		{Lat: 31.97, Lng: 35.89, StudentName: "Omar"},
		{Lat: 31.98, Lng: 35.88, StudentName: "Hidden", HideMarker: true},
		{Lat: 31.99, Lng: 35.87, IsFinal: true, StudentName: "Depot"},
	}
}

func TestSessionBuffersUntilReady(t *testing.T) {
	s := newTestSession(&fakeDirections{})

	gen, buffered := s.SetRouteData(RouteData{Route: routeStops()[:2]})
	assert.True(t, buffered)
	assert.Equal(t, uint64(1), gen)

	gen, buffered = s.SetRouteData(RouteData{Route: routeStops()})
	assert.True(t, buffered)
	assert.Equal(t, uint64(1), gen, "the slot holds one payload")

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, uint64(0), snap.Generation)
	assert.False(t, snap.Ready)

	assert.True(t, s.Ready(), "first ready replays the held payload")
	assert.False(t, s.Ready(), "later ready calls do nothing")

	snap = awaitGeneration(t, s, 1)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, StateSucceeded, snap.State)
	assert.True(t, snap.Ready)
	assert.Len(t, snap.Markers, 4, "last write wins")
}

func TestSessionReadyWithoutPendingData(t *testing.T) {
	s := newTestSession(&fakeDirections{})
	assert.False(t, s.Ready())
	assert.True(t, s.Snapshot().Ready)
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestSessionRendersMarkersAndRoute(t *testing.T) {
	s := newTestSession(&fakeDirections{})
	s.Ready()

	gen, buffered := s.SetRouteData(RouteData{
		Route: routeStops(),
		Available: []models.Stop{
			{Lat: 32.0, Lng: 35.8, StudentName: "Sami"},
			{Lat: 32.0, Lng: 35.8, StudentName: "Rami"},
		},
	})
	require.False(t, buffered)

	snap := awaitGeneration(t, s, gen)
	require.Equal(t, StateSucceeded, snap.State)

	glyphs := map[string]string{}
	for _, m := range snap.Markers {
		glyphs[m.Names[0]] = m.Glyph
	}
	assert.Equal(t, map[string]string{
		"School":    "S",
		"Assistant": "1",
		"Lina":      "2",
		"Depot":     "E",
		"Sami":      "2",
	}, glyphs)

	require.NotNil(t, snap.Summary)
	// assistant, Lina/Omar and the hidden stop are waypoints: 4 legs
	assert.Equal(t, "4.0 km", snap.Summary.DistanceText)
	assert.Equal(t, "4 minutes", snap.Summary.DurationText)

	require.NotNil(t, snap.Bounds)
	assert.Equal(t, 31.95, snap.Bounds.MinLat)
	assert.Equal(t, 32.0, snap.Bounds.MaxLat)
	assert.True(t, snap.FitBounds)

	gen, _ = s.SetRouteData(RouteData{Route: routeStops()})
	snap = awaitGeneration(t, s, gen)
	assert.False(t, snap.FitBounds, "bounds are fitted on the first load only")
}

func TestSessionSkipsUnroutableData(t *testing.T) {
	svc := &fakeDirections{}
	s := newTestSession(svc)
	s.Ready()

	gen, _ := s.SetRouteData(RouteData{Route: routeStops()[:1]})
	snap := s.Snapshot()
	assert.Equal(t, gen, snap.Generation)
	assert.Equal(t, StateSkipped, snap.State)

	gen, _ = s.SetRouteData(RouteData{Route: []models.Stop{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2, IsFinal: true}}})
	snap = awaitGeneration(t, s, gen)
	assert.Equal(t, StateSkipped, snap.State)
	assert.Contains(t, snap.Reason, "no start cluster")
	assert.Nil(t, snap.Route)
	assert.Equal(t, 0, svc.calls)
}

func TestSessionRoutingFailure(t *testing.T) {
	s := newTestSession(&fakeDirections{err: &directions.RoutingError{Provider: "fake", Status: "ZERO_RESULTS"}})
	s.Ready()

	gen, _ := s.SetRouteData(RouteData{Route: routeStops()})
	snap := awaitGeneration(t, s, gen)

	assert.Equal(t, StateFailed, snap.State)
	assert.Contains(t, snap.Reason, "ZERO_RESULTS")
	assert.Nil(t, snap.Route)
	assert.Nil(t, snap.Summary)
	for _, m := range snap.Markers {
		if m.Kind == KindStop {
			assert.Equal(t, "...", m.Glyph)
		}
	}
}

func TestSessionDiscardsStaleResults(t *testing.T) {
	release := make(chan struct{})
	svc := &fakeDirections{gates: map[int]chan struct{}{0: release}}
	s := newTestSession(svc)
	s.Ready()

	staleBefore := testutil.ToFloat64(metrics.StaleResponses)

	first, _ := s.SetRouteData(RouteData{Route: routeStops()})
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.calls == 1
	}, 2*time.Second, 5*time.Millisecond)

	second, _ := s.SetRouteData(RouteData{Route: []models.Stop{
		{Lat: 1, Lng: 1, IsStart: true},
		{Lat: 2, Lng: 2, IsFinal: true},
	}})
	require.Greater(t, second, first)

	snap := awaitGeneration(t, s, second)
	require.Equal(t, StateSucceeded, snap.State)
	assert.Equal(t, "1.0 km", snap.Summary.DistanceText)

	close(release)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.StaleResponses) == staleBefore+1
	}, 2*time.Second, 5*time.Millisecond)

	snap = s.Snapshot()
	assert.Equal(t, second, snap.Generation)
	assert.Equal(t, "1.0 km", snap.Summary.DistanceText, "the stale result must not replace the current route")
}

func TestSessionAwaitReturnsOnSupersede(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	s := newTestSession(&fakeDirections{gates: map[int]chan struct{}{0: release}})
	s.Ready()

	first, _ := s.SetRouteData(RouteData{Route: routeStops()})

	done := make(chan *Snapshot, 1)
	go func() {
		snap, _ := s.Await(context.Background(), first)
		done <- snap
	}()

	s.SetRouteData(RouteData{Route: routeStops()[:1]})

	select {
	case snap := <-done:
		assert.Greater(t, snap.Generation, first)
	case <-time.After(2 * time.Second):
		t.Fatal("Await did not return after the generation was superseded")
	}
}

func TestSessionAwaitHonorsContext(t *testing.T) {
	s := newTestSession(&fakeDirections{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap, err := s.Await(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, snap.State)
}

func TestSessionAwaitWithoutData(t *testing.T) {
	s := newTestSession(&fakeDirections{})
	s.Ready()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	snap, err := s.Await(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, uint64(0), snap.Generation)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSessionReportsInvalidStops(t *testing.T) {
	s := newTestSession(&fakeDirections{})
	s.Ready()

	var bad models.Stop
	require.NoError(t, bad.UnmarshalJSON([]byte(`{"lat":"abc","lng":"35.9"}`)))

	gen, _ := s.SetRouteData(RouteData{Available: []models.Stop{bad, {Lat: 31, Lng: 35}}})
	snap := awaitGeneration(t, s, gen)

	require.Len(t, snap.InvalidStops[ListAvailable], 1)
	assert.Equal(t, 0, snap.InvalidStops[ListAvailable][0].Position)
	assert.Len(t, snap.Markers, 1)
}

func TestSessionCloseDiscardsResults(t *testing.T) {
	release := make(chan struct{})
	s := newTestSession(&fakeDirections{gates: map[int]chan struct{}{0: release}})
	s.Ready()

	s.SetRouteData(RouteData{Route: routeStops()})
	s.Close()
	close(release)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateRequesting, s.Snapshot().State)

	gen, buffered := s.SetRouteData(RouteData{Route: routeStops()})
	assert.False(t, buffered)
	assert.Equal(t, uint64(1), gen)
}
