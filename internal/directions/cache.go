package directions

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/raedapplebanon-spec/route-map/internal/metrics"
)

// CachedService memoizes successful responses of another Service. Failures
// are never cached.
type CachedService struct {
	next  Service
	cache *cache.Cache
}

// NewCachedService wraps next with a TTL cache. A non-positive ttl returns
// next unchanged.
func NewCachedService(next Service, ttl time.Duration) Service {
	if ttl <= 0 {
		return next
	}
	return &CachedService{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedService) Name() string {
	return c.next.Name()
}

func (c *CachedService) Route(ctx context.Context, req *Request) (*Response, error) {
	key := Fingerprint(c.next.Name(), req)
	if v, ok := c.cache.Get(key); ok {
		metrics.RoutingCacheHits.WithLabelValues(c.next.Name()).Inc()
		return v.(*Response), nil
	}

	resp, err := c.next.Route(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, resp)
	return resp, nil
}

// ItemCount returns the number of cached responses, including expired ones
// not yet cleaned up.
func (c *CachedService) ItemCount() int {
	return c.cache.ItemCount()
}
