package config

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/raedapplebanon-spec/route-map/internal/metrics"
	"github.com/raedapplebanon-spec/route-map/internal/report"
	"github.com/raedapplebanon-spec/route-map/internal/utils"
)

// ValidateConfigFlags ensures that only one configuration source is specified:
// either a config file "--config-file", a remote config URL "--config-url".
//
// Returns an error if more than one input method is specified.
func ValidateConfigFlags(configFile, configURL *string) error {
	if *configFile == "" && *configURL == "" {
		return fmt.Errorf("no configuration provided, either --config-file or --config-url must be specified")
	}
	if (*configFile != "" && *configURL != "") || (*configFile != "" && len(flag.Args()) > 0) || (*configURL != "" && len(flag.Args()) > 0) {
		return fmt.Errorf("only one of --config-file or --config-url can be specified")
	}
	return nil
}

// refreshConfig periodically fetches settings from a remote URL and applies
// them to cfg. Failures are logged and reported; the previous settings stay
// in effect. The routine stops when ctx is canceled.
func refreshConfig(ctx context.Context, client *http.Client, configURL, configAuthUser, configAuthPass string, cfg *Config, logger *slog.Logger, interval time.Duration, maxRetries int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping config refresh routine")
			return
		case <-ticker.C:
			settings, err := loadConfigFromURL(ctx, client, configURL, configAuthUser, configAuthPass, maxRetries)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				metrics.ConfigRefreshStatus.WithLabelValues(configURL).Set(0)
				logger.Error("Failed to refresh remote config", "error", err)
				continue
			}
			cfg.UpdateConfig(settings)
			metrics.ConfigRefreshStatus.WithLabelValues(configURL).Set(1)
			logger.Info("Successfully refreshed configuration")
		}
	}
}

// loadConfigFromFile reads a JSON settings document from disk.
//
// This function is used when the application is configured with the
// --config-file flag.
func loadConfigFromFile(filePath string) (Settings, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file: %v", err)
	}

	settings, err := ParseSettings(data, os.Getenv)
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// loadConfigFromURL fetches a JSON settings document from a remote HTTP(S)
// endpoint, using the provided client and optional basic authentication.
//
// Errors are reported to Sentry for observability.
func loadConfigFromURL(ctx context.Context, client *http.Client, url, authUser, authPass string, maxRetries int) (Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to create request: %v", err)
	}

	if authUser != "" && authPass != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := DoWithBackoff(ctx, client, req, maxRetries)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, fmt.Errorf("failed to fetch remote config: %v", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("remote config returned status: %d", resp.StatusCode)
		report.ReportErrorWithSentryOptions(statusErr, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, statusErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read remote config: %v", err)
	}

	settings, err := ParseSettings(data, os.Getenv)
	if err != nil {
		report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
			Tags:  utils.MakeMap("config_url", url),
			Level: sentry.LevelError,
		})
		return Settings{}, err
	}

	return settings, nil
}
