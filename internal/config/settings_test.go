package config

import (
	"testing"
	"time"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
)

func TestParseSettingsDefaults(t *testing.T) {
	settings, err := ParseSettings([]byte(`{}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("Expected defaults, got %+v", settings)
	}

	opts := settings.ClusterOptions()
	if opts.ToleranceMeters != 15 || opts.TieBreak != cluster.TieBreakFirst || opts.Anchor != cluster.AnchorFirst {
		t.Errorf("Unexpected cluster options %+v", opts)
	}

	popts := settings.PlannerOptions()
	if popts.Strategy != planner.StrategyTwoPhase || popts.Timeout != 15*time.Second {
		t.Errorf("Unexpected planner options %+v", popts)
	}

	dsettings := settings.DirectionsSettings()
	if dsettings.Provider != "google" || dsettings.CacheTTL != 5*time.Minute {
		t.Errorf("Unexpected directions settings %+v", dsettings)
	}

	if settings.SessionIdleTTL() != time.Hour {
		t.Errorf("Expected 1h idle TTL, got %v", settings.SessionIdleTTL())
	}
}

func TestParseSettingsEnvOverride(t *testing.T) {
	getenv := func(key string) string {
		if key == "DIRECTIONS_API_KEY" {
			return "from-env"
		}
		return ""
	}

	settings, err := ParseSettings([]byte(`{"directions": {"api_key": "from-file"}}`), getenv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Directions.APIKey != "from-env" {
		t.Errorf("Expected env API key to win, got %q", settings.Directions.APIKey)
	}

	settings, err = ParseSettings([]byte(`{"directions": {"api_key": "from-file"}}`), func(string) string { return "" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Directions.APIKey != "from-file" {
		t.Errorf("Expected file API key when env is empty, got %q", settings.Directions.APIKey)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		wantOK bool
	}{
		{"zero tolerance disables merging", `{"clustering": {"tolerance_meters": 0}}`, true},
		{"unknown tie break", `{"clustering": {"tie_break": "random"}}`, false},
		{"unknown anchor", `{"clustering": {"anchor": "median"}}`, false},
		{"unknown provider", `{"directions": {"provider": "mapbox"}}`, false},
		{"non-positive match tolerance", `{"planning": {"match_tolerance_degrees": 0}}`, false},
		{"negative timeout", `{"planning": {"timeout_seconds": -1}}`, false},
		{"negative idle ttl", `{"sessions": {"idle_ttl_minutes": -5}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.doc), nil)
			if (err == nil) != tt.wantOK {
				t.Errorf("Expected ok=%v, got error %v", tt.wantOK, err)
			}
		})
	}
}

func TestConfigUpdate(t *testing.T) {
	cfg := NewConfig(4000, "testing", DefaultSettings())
	next := DefaultSettings()
	next.Planning.Strategy = string(planner.StrategySinglePhase)

	cfg.UpdateConfig(next)

	if cfg.GetSettings().Planning.Strategy != "single-phase" {
		t.Errorf("Expected updated strategy, got %q", cfg.GetSettings().Planning.Strategy)
	}
}
