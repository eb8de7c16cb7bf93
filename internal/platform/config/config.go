// Package config loads service configuration from the environment so main
// stays lean. Scoring constants are not configured here; they live in the
// risk package's explicit Config value.
package config

import (
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config captures process-level settings.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// DataDir holds the demographic and enrollment CSV exports.
	DataDir string `mapstructure:"data_dir"`

	// DatabaseURL enables run-history recording to Postgres when non-empty.
	DatabaseURL string `mapstructure:"database_url"`

	// Workers bounds the per-district compute pool. Defaults to GOMAXPROCS.
	Workers int `mapstructure:"workers"`

	// TopRankings is the default limit for the risk ranking endpoint.
	TopRankings int `mapstructure:"top_rankings"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads NIIS_* environment variables with defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("niis")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8000")
	v.SetDefault("data_dir", "data")
	v.SetDefault("database_url", "")
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("top_rankings", 50)
	v.SetDefault("log_level", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return cfg, nil
}
