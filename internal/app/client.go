package app

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/raedapplebanon-spec/route-map/internal/metrics"
)

// latencyTrackingRoundTripper records the latency of every outgoing request
// (routing providers and remote configuration) in metrics.OutgoingLatency.
type latencyTrackingRoundTripper struct {
	next http.RoundTripper
}

func (rt *latencyTrackingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	// the query string carries coordinates and API keys; keep it out of labels
	safeURL := req.URL.Scheme + "://" + req.URL.Host + routeLabel(req.URL.Path)

	metrics.OutgoingLatency.WithLabelValues(safeURL, req.Method, status).Observe(duration)

	return resp, err
}

// routeLabel trims coordinate path segments used by OSRM
// (/route/v1/driving/35.9,31.9;...) so label cardinality stays bounded.
func routeLabel(path string) string {
	segments := 0
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			continue
		}
		segments++
		if segments == 4 {
			return path[:i]
		}
	}
	return path
}

// NewPooledClient returns the shared HTTP client for routing providers and
// configuration fetches. Connections are pooled per host; the overall
// timeout sits above the default planning timeout so the planner's context
// decides when a routing call is abandoned.
func NewPooledClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &http.Client{
		Transport: &latencyTrackingRoundTripper{next: transport},
		Timeout:   30 * time.Second,
	}
}
