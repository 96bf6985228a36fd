// Package config assembles the runtime settings for the MazGPT CLI from
// defaults, environment variables (with .env support), an optional JSON file,
// and command-line flags — later sources take precedence.
package config

import "time"

// Config holds runtime settings for the MazGPT CLI.
//
// RefreshInterval drives proactive session renewal and must stay shorter
// than the backend's credential lifetime; it is configuration precisely
// because that lifetime belongs to the backend.
type Config struct {
	ServerURL       string
	DatabaseDSN     string
	RefreshInterval time.Duration
	Debug           bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8000"
	c.DatabaseDSN = "mazgpt.db"
	c.RefreshInterval = 25 * time.Minute
	c.Debug = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if given), and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
