package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/raedapplebanon-spec/route-map/internal/metrics"
)

// DefaultGoogleBaseURL is the Google Maps web service host.
const DefaultGoogleBaseURL = "https://maps.googleapis.com"

const providerGoogle = "google"

// GoogleClient calls the Google Directions web service.
type GoogleClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *slog.Logger
}

func NewGoogleClient(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *GoogleClient {
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
		Logger:  logger,
	}
}

func (g *GoogleClient) Name() string {
	return providerGoogle
}

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		WaypointOrder []int `json:"waypoint_order"`
	} `json:"routes"`
}

func (g *GoogleClient) buildURL(req *Request) string {
	mode := req.Mode
	if mode == "" {
		mode = ModeDriving
	}

	params := url.Values{}
	params.Set("origin", req.Origin.String())
	params.Set("destination", req.Destination.String())
	params.Set("mode", mode)
	if len(req.Waypoints) > 0 {
		parts := make([]string, 0, len(req.Waypoints)+1)
		if req.OptimizeWaypoints {
			parts = append(parts, "optimize:true")
		}
		for _, w := range req.Waypoints {
			parts = append(parts, w.String())
		}
		params.Set("waypoints", strings.Join(parts, "|"))
	}
	if g.APIKey != "" {
		params.Set("key", g.APIKey)
	}

	return g.BaseURL + "/maps/api/directions/json?" + params.Encode()
}

// Route requests a driving route. The API key is never included in errors.
func (g *GoogleClient) Route(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.buildURL(req), nil)
	if err != nil {
		return nil, &RoutingError{Provider: providerGoogle, Status: "INVALID_REQUEST", Err: err}
	}

	resp, err := g.Client.Do(httpReq)
	if err != nil {
		// url.Error carries the full URL including the key.
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		re := transportError(providerGoogle, err)
		metrics.RoutingRequests.WithLabelValues(providerGoogle, re.Status).Inc()
		return nil, re
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RoutingRequests.WithLabelValues(providerGoogle, "HTTP_ERROR").Inc()
		return nil, &RoutingError{
			Provider: providerGoogle,
			Status:   "HTTP_ERROR",
			Reason:   fmt.Sprintf("unexpected status code %d", resp.StatusCode),
		}
	}

	var payload googleDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RoutingRequests.WithLabelValues(providerGoogle, "DECODE_ERROR").Inc()
		return nil, &RoutingError{Provider: providerGoogle, Status: "DECODE_ERROR", Err: err}
	}

	metrics.RoutingRequests.WithLabelValues(providerGoogle, payload.Status).Inc()
	if payload.Status != "OK" {
		return nil, &RoutingError{Provider: providerGoogle, Status: payload.Status, Reason: payload.ErrorMessage}
	}
	if len(payload.Routes) == 0 {
		return nil, &RoutingError{Provider: providerGoogle, Status: "ZERO_RESULTS", Reason: "no routes returned"}
	}

	route := payload.Routes[0]
	out := &Response{Legs: make([]Leg, 0, len(route.Legs))}
	for _, leg := range route.Legs {
		out.Legs = append(out.Legs, Leg{DistanceMeters: leg.Distance.Value, DurationSeconds: leg.Duration.Value})
	}
	if req.OptimizeWaypoints && len(route.WaypointOrder) > 0 {
		out.WaypointOrder = route.WaypointOrder
	}

	g.Logger.Debug("google directions response", "legs", len(out.Legs), "waypoints", len(req.Waypoints))
	return out, nil
}
