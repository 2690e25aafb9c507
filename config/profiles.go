package config

import (
	"fmt"
	"time"
)

// profiles adjust the defaults for each deployment environment.
var profiles = map[string]func(*Config){
	"development": func(c *Config) {
		c.Environment = EnvDevelopment
		c.Logging.Level = "debug"
		c.Logging.Format = "text"
	},
	"testing": func(c *Config) {
		c.Environment = EnvTesting
		c.Storage.Adapter = "memory"
		c.Logging.Level = "warn"
		c.FC.SyncInterval = 0
	},
	"staging": func(c *Config) {
		c.Environment = EnvStaging
		c.Storage.Adapter = "file"
		c.Metrics.Enabled = true
		c.Security.EnableRateLimit = true
	},
	"production": func(c *Config) {
		c.Environment = EnvProduction
		c.Storage.Adapter = "redis"
		c.Server.CORSOrigin = ""
		c.Metrics.Enabled = true
		c.Security.EnableRateLimit = true
		c.Security.RateLimit.RequestsPerMinute = 30
		c.FC.SyncInterval = 6 * time.Hour
	},
}

// ProfileDefaults returns the defaults of a named profile without reading
// the environment.
func ProfileDefaults(name string) (*Config, error) {
	apply, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown config profile %q", name)
	}
	cfg := DefaultConfig()
	cfg.Profile = name
	apply(cfg)
	return cfg, nil
}

// LoadProfile loads a profile's defaults, then applies .env and environment
// overrides and validates the result.
func LoadProfile(name string) (*Config, error) {
	cfg, err := ProfileDefaults(name)
	if err != nil {
		return nil, err
	}
	return load(cfg)
}
