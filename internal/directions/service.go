package directions

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Settings selects and configures the routing provider.
type Settings struct {
	Provider string
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
}

// NewService builds the configured provider client, wrapped in a response cache.
func NewService(settings Settings, client *http.Client, logger *slog.Logger) (Service, error) {
	var svc Service
	switch settings.Provider {
	case "", providerGoogle:
		svc = NewGoogleClient(settings.BaseURL, settings.APIKey, client, logger)
	case providerOSRM:
		svc = NewOSRMClient(settings.BaseURL, client, logger)
	default:
		return nil, fmt.Errorf("unknown directions provider %q", settings.Provider)
	}
	return NewCachedService(svc, settings.CacheTTL), nil
}
