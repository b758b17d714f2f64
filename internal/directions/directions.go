package directions

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// ModeDriving is the only travel mode the widget requests.
const ModeDriving = "driving"

// Request is one routing call: origin, destination and intermediate waypoints.
type Request struct {
	Origin            models.Coordinates
	Destination       models.Coordinates
	Waypoints         []models.Coordinates
	Mode              string
	OptimizeWaypoints bool
}

// Leg is the segment between two consecutive points of the returned route.
type Leg struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Response holds the legs of the route and, when reordering was requested,
// the visiting order: WaypointOrder[i] is the request index of the waypoint
// visited at position i.
type Response struct {
	Legs          []Leg `json:"legs"`
	WaypointOrder []int `json:"waypointOrder"`
}

// Service computes routes through an external provider.
type Service interface {
	Route(ctx context.Context, req *Request) (*Response, error)
	Name() string
}

// RoutingError reports a failed routing call: transport failure, non-OK
// provider status, undecodable payload or timeout.
type RoutingError struct {
	Provider string
	Status   string
	Reason   string
	Timeout  bool
	Err      error
}

func (e *RoutingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s routing failed", e.Provider)
	if e.Status != "" {
		fmt.Fprintf(&b, " with status %s", e.Status)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RoutingError) Unwrap() error {
	return e.Err
}

// transportError wraps an error returned by the HTTP client.
func transportError(provider string, err error) *RoutingError {
	re := &RoutingError{Provider: provider, Status: "TRANSPORT_ERROR", Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		re.Status = "TIMEOUT"
		re.Timeout = true
	}
	return re
}

// Fingerprint returns a stable key for req, used for caching.
func Fingerprint(provider string, req *Request) string {
	var b strings.Builder
	b.WriteString(provider)
	b.WriteByte('|')
	b.WriteString(req.Mode)
	b.WriteByte('|')
	if req.OptimizeWaypoints {
		b.WriteString("opt")
	}
	b.WriteByte('|')
	b.WriteString(req.Origin.String())
	b.WriteByte('|')
	b.WriteString(req.Destination.String())
	for _, w := range req.Waypoints {
		b.WriteByte('|')
		b.WriteString(w.String())
	}
	return b.String()
}

// ValidateOrder checks that order is a permutation of 0..n-1.
func ValidateOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("waypoint order has %d entries, expected %d", len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("waypoint index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("waypoint index %d repeated", idx)
		}
		seen[idx] = true
	}
	return nil
}

// IdentityOrder returns 0..n-1.
func IdentityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
