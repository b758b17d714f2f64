package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// DefaultOSRMBaseURL is the public OSRM demo server.
const DefaultOSRMBaseURL = "https://router.project-osrm.org"

const providerOSRM = "osrm"

// OSRMClient routes through an OSRM server. Optimized requests use the trip
// service with fixed first and last points; locked requests use the route service.
type OSRMClient struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewOSRMClient(baseURL string, client *http.Client, logger *slog.Logger) *OSRMClient {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OSRMClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  client,
		Logger:  logger,
	}
}

func (o *OSRMClient) Name() string {
	return providerOSRM
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Legs []osrmLeg `json:"legs"`
	} `json:"routes"`
	Trips []struct {
		Legs []osrmLeg `json:"legs"`
	} `json:"trips"`
	Waypoints []struct {
		WaypointIndex int `json:"waypoint_index"`
		TripsIndex    int `json:"trips_index"`
	} `json:"waypoints"`
}

func osrmCoordinates(req *Request) string {
	points := make([]models.Coordinates, 0, len(req.Waypoints)+2)
	points = append(points, req.Origin)
	points = append(points, req.Waypoints...)
	points = append(points, req.Destination)

	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
	}
	return strings.Join(parts, ";")
}

func (o *OSRMClient) buildURL(req *Request) string {
	profile := req.Mode
	if profile == "" {
		profile = ModeDriving
	}
	if req.OptimizeWaypoints && len(req.Waypoints) > 0 {
		return fmt.Sprintf("%s/trip/v1/%s/%s?roundtrip=false&source=first&destination=last&overview=false",
			o.BaseURL, profile, osrmCoordinates(req))
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?overview=false", o.BaseURL, profile, osrmCoordinates(req))
}

func (o *OSRMClient) Route(ctx context.Context, req *Request) (*Response, error) {
	optimize := req.OptimizeWaypoints && len(req.Waypoints) > 0

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.buildURL(req), nil)
	if err != nil {
		return nil, &RoutingError{Provider: providerOSRM, Status: "InvalidQuery", Err: err}
	}

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		re := transportError(providerOSRM, err)
		metrics.RoutingRequests.WithLabelValues(providerOSRM, re.Status).Inc()
		return nil, re
	}
	defer resp.Body.Close()

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		status := "DECODE_ERROR"
		if resp.StatusCode != http.StatusOK {
			status = "HTTP_ERROR"
		}
		metrics.RoutingRequests.WithLabelValues(providerOSRM, status).Inc()
		return nil, &RoutingError{
			Provider: providerOSRM,
			Status:   status,
			Reason:   fmt.Sprintf("status code %d", resp.StatusCode),
			Err:      err,
		}
	}

	// OSRM reports errors such as NoRoute with a 400 and a JSON body.
	metrics.RoutingRequests.WithLabelValues(providerOSRM, payload.Code).Inc()
	if payload.Code != "Ok" {
		return nil, &RoutingError{Provider: providerOSRM, Status: payload.Code, Reason: payload.Message}
	}

	if optimize {
		return o.decodeTrip(req, &payload)
	}

	if len(payload.Routes) == 0 {
		return nil, &RoutingError{Provider: providerOSRM, Status: "NoRoute", Reason: "no routes returned"}
	}
	out := &Response{}
	for _, leg := range payload.Routes[0].Legs {
		out.Legs = append(out.Legs, Leg{DistanceMeters: leg.Distance, DurationSeconds: leg.Duration})
	}
	return out, nil
}

// decodeTrip converts the trip service's per-input waypoint_index into the
// visiting order of the intermediate waypoints.
func (o *OSRMClient) decodeTrip(req *Request, payload *osrmResponse) (*Response, error) {
	if len(payload.Trips) != 1 {
		return nil, &RoutingError{
			Provider: providerOSRM,
			Status:   "NoTrips",
			Reason:   fmt.Sprintf("expected a single trip, got %d", len(payload.Trips)),
		}
	}

	n := len(req.Waypoints)
	if len(payload.Waypoints) != n+2 {
		return nil, &RoutingError{
			Provider: providerOSRM,
			Status:   "DECODE_ERROR",
			Reason:   fmt.Sprintf("expected %d waypoints, got %d", n+2, len(payload.Waypoints)),
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	for input := 1; input <= n; input++ {
		pos := payload.Waypoints[input].WaypointIndex - 1
		if pos < 0 || pos >= n || order[pos] != -1 {
			return nil, &RoutingError{
				Provider: providerOSRM,
				Status:   "DECODE_ERROR",
				Reason:   fmt.Sprintf("invalid waypoint_index %d for input %d", pos+1, input),
			}
		}
		order[pos] = input - 1
	}

	out := &Response{WaypointOrder: order}
	for _, leg := range payload.Trips[0].Legs {
		out.Legs = append(out.Legs, Leg{DistanceMeters: leg.Distance, DurationSeconds: leg.Duration})
	}
	o.Logger.Debug("osrm trip response", "legs", len(out.Legs), "order", order)
	return out, nil
}
