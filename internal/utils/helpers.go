package utils

import (
	"fmt"
	"os"

	"github.com/getsentry/sentry-go"

	"github.com/raedapplebanon-spec/route-map/internal/report"
)

// MakeMap creates and returns a map[string]string containing a single key-value pair.
func MakeMap(key, value string) map[string]string {
	return map[string]string{key: value}
}

// EnsureDirectory makes sure dir exists and is a directory, creating it if
// necessary. Failures are reported to Sentry.
func EnsureDirectory(dir string) error {
	stat, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			reportDirectoryError(err, dir)
			return err
		}
		return nil
	}
	if !stat.IsDir() {
		err := fmt.Errorf("%s is not a directory", dir)
		reportDirectoryError(err, dir)
		return err
	}
	return nil
}

func reportDirectoryError(err error, dir string) {
	report.ReportErrorWithSentryOptions(err, report.SentryReportOptions{
		Level: sentry.LevelError,
		ExtraContext: map[string]interface{}{
			"directory": dir,
		},
	})
}
