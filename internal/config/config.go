package config

import (
	"sync"
)

// Config holds all the configuration settings for our application.
type Config struct {
	Port     int
	Env      string
	Mu       sync.RWMutex
	Settings Settings
}

// NewConfig creates a new instance of a Config struct.
func NewConfig(port int, env string, settings Settings) *Config {
	return &Config{
		Port:     port,
		Env:      env,
		Settings: settings,
	}
}

// UpdateConfig safely replaces the tunable settings.
func (cfg *Config) UpdateConfig(settings Settings) {
	cfg.Mu.Lock()
	defer cfg.Mu.Unlock()
	cfg.Settings = settings
}

// GetSettings safely returns a copy of the current settings.
// Settings only hold values, so the copy can be used freely by the caller.
func (cfg *Config) GetSettings() Settings {
	cfg.Mu.RLock()
	defer cfg.Mu.RUnlock()
	return cfg.Settings
}
