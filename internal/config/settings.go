package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/raedapplebanon-spec/route-map/internal/cluster"
	"github.com/raedapplebanon-spec/route-map/internal/directions"
	"github.com/raedapplebanon-spec/route-map/internal/planner"
)

// Settings is the JSON configuration document, loaded from a file or URL.
type Settings struct {
	Clustering ClusteringSettings `json:"clustering"`
	Planning   PlanningSettings   `json:"planning"`
	Directions DirectionsSettings `json:"directions"`
	Sessions   SessionSettings    `json:"sessions"`
}

type ClusteringSettings struct {
	ToleranceMeters float64 `json:"tolerance_meters"`
	TieBreak        string  `json:"tie_break"`
	Anchor          string  `json:"anchor"`
}

type PlanningSettings struct {
	Strategy              string  `json:"strategy"`
	MatchToleranceDegrees float64 `json:"match_tolerance_degrees"`
	TimeoutSeconds        int     `json:"timeout_seconds"`
}

type DirectionsSettings struct {
	Provider        string `json:"provider"`
	BaseURL         string `json:"base_url"`
	APIKey          string `json:"api_key"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
}

type SessionSettings struct {
	IdleTTLMinutes int `json:"idle_ttl_minutes"`
}

// DefaultSettings returns the settings used for fields missing from the document.
func DefaultSettings() Settings {
	return Settings{
		Clustering: ClusteringSettings{
			ToleranceMeters: cluster.DefaultToleranceMeters,
			TieBreak:        string(cluster.TieBreakFirst),
			Anchor:          string(cluster.AnchorFirst),
		},
		Planning: PlanningSettings{
			Strategy:              string(planner.StrategyTwoPhase),
			MatchToleranceDegrees: planner.DefaultMatchToleranceDegrees,
			TimeoutSeconds:        15,
		},
		Directions: DirectionsSettings{
			Provider:        "google",
			CacheTTLSeconds: 300,
		},
		Sessions: SessionSettings{
			IdleTTLMinutes: 60,
		},
	}
}

// ParseSettings decodes a settings document over the defaults, applies
// environment overrides and validates the result.
func ParseSettings(data []byte, getenv func(string) string) (Settings, error) {
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal JSON: %v", err)
	}
	settings.applyEnvOverrides(getenv)
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *Settings) applyEnvOverrides(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if key := getenv("DIRECTIONS_API_KEY"); key != "" {
		s.Directions.APIKey = key
	}
}

// Validate rejects unknown enum values and negative durations.
func (s *Settings) Validate() error {
	switch cluster.TieBreak(s.Clustering.TieBreak) {
	case cluster.TieBreakFirst, cluster.TieBreakNearest:
	default:
		return fmt.Errorf("invalid clustering.tie_break %q", s.Clustering.TieBreak)
	}
	switch cluster.Anchor(s.Clustering.Anchor) {
	case cluster.AnchorFirst, cluster.AnchorCentroid:
	default:
		return fmt.Errorf("invalid clustering.anchor %q", s.Clustering.Anchor)
	}
	switch planner.Strategy(s.Planning.Strategy) {
	case planner.StrategyTwoPhase, planner.StrategySinglePhase:
	default:
		return fmt.Errorf("invalid planning.strategy %q", s.Planning.Strategy)
	}
	switch s.Directions.Provider {
	case "google", "osrm":
	default:
		return fmt.Errorf("invalid directions.provider %q", s.Directions.Provider)
	}
	if s.Planning.MatchToleranceDegrees <= 0 {
		return fmt.Errorf("planning.match_tolerance_degrees must be positive")
	}
	if s.Planning.TimeoutSeconds < 0 || s.Directions.CacheTTLSeconds < 0 || s.Sessions.IdleTTLMinutes < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func (s Settings) ClusterOptions() cluster.Options {
	return cluster.Options{
		ToleranceMeters: s.Clustering.ToleranceMeters,
		TieBreak:        cluster.TieBreak(s.Clustering.TieBreak),
		Anchor:          cluster.Anchor(s.Clustering.Anchor),
	}
}

func (s Settings) PlannerOptions() planner.Options {
	return planner.Options{
		Strategy:              planner.Strategy(s.Planning.Strategy),
		MatchToleranceDegrees: s.Planning.MatchToleranceDegrees,
		Timeout:               time.Duration(s.Planning.TimeoutSeconds) * time.Second,
	}
}

func (s Settings) DirectionsSettings() directions.Settings {
	return directions.Settings{
		Provider: s.Directions.Provider,
		BaseURL:  s.Directions.BaseURL,
		APIKey:   s.Directions.APIKey,
		CacheTTL: time.Duration(s.Directions.CacheTTLSeconds) * time.Second,
	}
}

func (s Settings) SessionIdleTTL() time.Duration {
	return time.Duration(s.Sessions.IdleTTLMinutes) * time.Minute
}
