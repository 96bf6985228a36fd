package config

import (
	"encoding/json"
	"os"

	"github.com/mazgpt/mazgpt-go/internal/flagx"
	"github.com/mazgpt/mazgpt-go/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the file can specify intervals either as strings like
// "25m" or as integer nanoseconds.
type JsonConfig struct {
	ServerURL       string         `json:"server_url"`
	DatabaseDSN     string         `json:"database_dsn"`
	RefreshInterval timex.Duration `json:"refresh_interval"`
	Debug           *bool          `json:"debug"`
}

// parseJson overlays Config with values loaded from the JSON file given via
// -c/-config. Absent file path means no JSON layer. Only fields present in
// the file override earlier layers. Panics on read or unmarshal errors,
// matching the fail-fast startup policy.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.RefreshInterval.Duration != 0 {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
}
