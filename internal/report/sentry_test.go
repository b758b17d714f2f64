package report_test

import (
	"errors"
	"os"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/raedapplebanon-spec/route-map/internal/report"
)

func TestSetupSentry(t *testing.T) {
	t.Run("Valid DSN", func(t *testing.T) {
		os.Setenv("SENTRY_DSN", "https://public@sentry.example.com/1")
		defer os.Unsetenv("SENTRY_DSN")

		if err := report.SetupSentry("testing", "test"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		report.FlushSentry()
	})

	t.Run("Invalid DSN", func(t *testing.T) {
		os.Setenv("SENTRY_DSN", "not a dsn")
		defer os.Unsetenv("SENTRY_DSN")

		if err := report.SetupSentry("testing", "test"); err == nil {
			t.Error("expected error for invalid DSN, got none")
		}
	})
}

func TestReportErrorIgnoresNil(t *testing.T) {
	report.ReportError(nil)
	report.ReportErrorWithSentryOptions(nil, report.SentryReportOptions{})
}

func TestReportErrorWithSentryOptions(t *testing.T) {
	report.ConfigureScope("testing", "test")
	report.ReportError(errors.New("plain failure"), sentry.LevelWarning)
	report.ReportErrorWithSentryOptions(errors.New("routing failed"), report.SentryReportOptions{
		Tags:         map[string]string{"session_id": "abc", "provider": "osrm"},
		ExtraContext: map[string]interface{}{"generation": 3},
		Level:        sentry.LevelWarning,
	})
}
