package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment. A .env
// file in the working directory is loaded first, without overriding
// variables that are already set.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	cfg.ServerURL = getEnv("MAZGPT_SERVER_URL", cfg.ServerURL)
	cfg.DatabaseDSN = getEnv("MAZGPT_DATABASE_DSN", cfg.DatabaseDSN)

	if v := os.Getenv("MAZGPT_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RefreshInterval = d
		}
	}
	if v := os.Getenv("MAZGPT_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
