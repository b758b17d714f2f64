package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// CachedPromHandler serves a Prometheus exposition that is gathered at most
// once per ttl, so frequent scrapes do not each walk every collector.
type CachedPromHandler struct {
	mu    sync.RWMutex
	cache []byte
	ttl   time.Duration
	h     http.Handler
}

// NewCachedPromHandler builds the handler, fills the cache once and keeps it
// fresh until ctx is cancelled.
func NewCachedPromHandler(ctx context.Context, gatherer prometheus.Gatherer, ttl time.Duration) *CachedPromHandler {
	c := &CachedPromHandler{
		ttl: ttl,
		h:   promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}

	c.refresh()
	go c.refreshLoop(ctx)
	return c
}

func (c *CachedPromHandler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

func (c *CachedPromHandler) refresh() {
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	if err != nil {
		return
	}
	// plain text only; a gzip body would be cached and served to clients
	// that did not ask for it
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	var buf bytes.Buffer
	rec := &responseRecorder{buf: &buf, header: http.Header{}}
	c.h.ServeHTTP(rec, req)
	if rec.status != 0 && rec.status != http.StatusOK {
		return
	}

	c.mu.Lock()
	c.cache = buf.Bytes()
	c.mu.Unlock()
}

// ServeHTTP serves the cached exposition, falling back to a live gather
// while the cache is still empty.
func (c *CachedPromHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	cached := c.cache
	c.mu.RUnlock()

	if len(cached) == 0 {
		c.h.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	_, _ = w.Write(cached)
}

// responseRecorder captures promhttp output into a buffer.
type responseRecorder struct {
	buf    *bytes.Buffer
	header http.Header
	status int
}

func (rr *responseRecorder) Write(b []byte) (int, error) { return rr.buf.Write(b) }
func (rr *responseRecorder) Header() http.Header         { return rr.header }
func (rr *responseRecorder) WriteHeader(statusCode int)  { rr.status = statusCode }
