package report

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// SetupSentry initializes the Sentry client from SENTRY_DSN. An empty DSN
// leaves Sentry disabled; captured events are dropped.
func SetupSentry(env, version string) error {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              os.Getenv("SENTRY_DSN"),
		Environment:      env,
		Release:          "route-map@" + version,
		EnableTracing:    true,
		Debug:            env == "development",
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	sentry.CaptureMessage("route-map started")
	return nil
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
