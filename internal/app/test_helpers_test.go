package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/raedapplebanon-spec/route-map/internal/config"
	"github.com/raedapplebanon-spec/route-map/internal/directions"
)

// stubDirections answers every request with 1 km / 2 min legs in input order.
type stubDirections struct {
	calls atomic.Int32
	err   error
}

func (s *stubDirections) Name() string { return "stub" }

func (s *stubDirections) Route(ctx context.Context, req *directions.Request) (*directions.Response, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	resp := &directions.Response{}
	for i := 0; i <= len(req.Waypoints); i++ {
		resp.Legs = append(resp.Legs, directions.Leg{DistanceMeters: 1000, DurationSeconds: 120})
	}
	if req.OptimizeWaypoints {
		resp.WaypointOrder = directions.IdentityOrder(len(req.Waypoints))
	}
	return resp, nil
}

func testSettings() config.Settings {
	settings := config.DefaultSettings()
	settings.Directions.Provider = "osrm"
	settings.Directions.CacheTTLSeconds = 0
	return settings
}

// newTestApplication builds an Application whose directions provider is svc.
// A nil svc leaves the provider to be built from settings.
func newTestApplication(t *testing.T, settings config.Settings, svc directions.Service) *Application {
	t.Helper()

	cfg := config.NewConfig(4000, "testing", settings)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := New(cfg, logger, http.DefaultClient, "test-version")
	if svc != nil {
		app.directions = svc
		app.directionsFor = settings.DirectionsSettings()
		app.directionsBuilt = true
	}
	return app
}

// do sends a request through the full middleware stack.
func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

// scenarioStops is a school, two pickups and a depot.
const scenarioStops = `[
	{"lat": 31.95, "lng": 35.91, "isStart": true, "studentName": "School"},
	{"lat": "31.96", "lng": "35.90", "studentName": "Lina"},
	{"lat": 31.97, "lng": 35.88, "studentName": "Sami"},
	{"lat": 31.99, "lng": 35.87, "isFinal": "true", "studentName": "Depot"}
]`
