package directions

import (
	"net/http"
	"net/url"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"gopkg.in/dnaeon/go-vcr.v4/pkg/cassette"
	"gopkg.in/dnaeon/go-vcr.v4/pkg/recorder"

	"github.com/raedapplebanon-spec/route-map/internal/models"
)

// newReplayClient returns an HTTP client that serves responses from the
// named cassette under testdata/vcr and never touches the network.
func newReplayClient(t *testing.T, cassetteName string) *http.Client {
	t.Helper()

	rec, err := recorder.New(
		filepath.Join("testdata", "vcr", cassetteName),
		recorder.WithMode(recorder.ModeReplayOnly),
		recorder.WithMatcher(matchMethodAndURL),
	)
	if err != nil {
		t.Fatalf("Failed to create recorder: %v", err)
	}
	t.Cleanup(func() {
		// #nosec G104
		rec.Stop()
	})

	return &http.Client{
		Transport: rec,
		Timeout:   10 * time.Second,
	}
}

// matchMethodAndURL compares method, host, path and decoded query values so
// that parameter ordering does not matter.
func matchMethodAndURL(r *http.Request, i cassette.Request) bool {
	u, err := url.Parse(i.URL)
	if err != nil {
		return false
	}
	return r.Method == i.Method &&
		r.URL.Host == u.Host &&
		r.URL.Path == u.Path &&
		reflect.DeepEqual(r.URL.Query(), u.Query())
}

var (
	testOrigin      = models.Coordinates{Lat: 31.95, Lng: 35.91}
	testDestination = models.Coordinates{Lat: 31.99, Lng: 35.87}
	testWaypoints   = []models.Coordinates{
		{Lat: 31.96, Lng: 35.90},
		{Lat: 31.97, Lng: 35.88},
	}
)
