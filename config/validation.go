package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"acrossfc/adapters/sqlx"
	"acrossfc/core"
)

func joinErrs(errs []string) error {
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func oneOf(field, value string, valid []string) []string {
	if slices.Contains(valid, value) {
		return nil
	}
	return []string{fmt.Sprintf("%s must be one of: %s", field, strings.Join(valid, ", "))}
}

// Validate validates the free company settings
func (f *FCConfig) Validate() error {
	var errs []string

	if _, err := core.CatalogFor(core.Tier(f.Tier)); err != nil {
		errs = append(errs, fmt.Sprintf("tier: %v", err))
	}

	if f.GuildID < 0 {
		errs = append(errs, "guild_id cannot be negative")
	}

	if f.SyncConcurrency <= 0 {
		errs = append(errs, "sync_concurrency must be positive")
	}

	return joinErrs(errs)
}

// Validate validates FFLogs client settings
func (f *FFLogsConfig) Validate() error {
	var errs []string

	if f.TokenURL == "" {
		errs = append(errs, "token_url cannot be empty")
	}
	if f.APIURL == "" {
		errs = append(errs, "api_url cannot be empty")
	}
	if f.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if f.RequestsPerSecond <= 0 {
		errs = append(errs, "requests_per_second must be positive")
	}
	if f.Burst <= 0 {
		errs = append(errs, "burst must be positive")
	}
	if (f.ClientID == "") != (f.ClientSecret == "") {
		errs = append(errs, "client_id and client_secret must be set together")
	}

	return joinErrs(errs)
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string

	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}

	if s.ReadTimeout <= 0 {
		errs = append(errs, "read_timeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		errs = append(errs, "write_timeout must be positive")
	}

	if s.IdleTimeout <= 0 {
		errs = append(errs, "idle_timeout must be positive")
	}

	if s.ReadHeaderTimeout <= 0 {
		errs = append(errs, "read_header_timeout must be positive")
	}

	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown_timeout must be positive")
	}

	return joinErrs(errs)
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	errs := oneOf("adapter", s.Adapter, []string{"memory", "redis", "sql", "file"})

	switch s.Adapter {
	case "file":
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case "redis":
		if s.Redis.Addr == "" {
			errs = append(errs, "redis config: addr cannot be empty")
		}
	case "sql":
		drivers := []string{string(sqlx.DriverPostgres), string(sqlx.DriverMySQL), string(sqlx.DriverSQLite)}
		errs = append(errs, oneOf("sql config: driver", string(s.SQL.Driver), drivers)...)
		if s.SQL.DSN == "" {
			errs = append(errs, "sql config: dsn cannot be empty")
		}
	}

	return joinErrs(errs)
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string
	errs = append(errs, oneOf("level", l.Level, []string{"debug", "info", "warn", "error"})...)
	errs = append(errs, oneOf("format", l.Format, []string{"json", "text"})...)
	errs = append(errs, oneOf("output", l.Output, []string{"stdout", "stderr", "file"})...)

	if l.Output == "file" {
		if l.File.Path == "" {
			errs = append(errs, "file.path cannot be empty when output is file")
		}
		if l.File.MaxSizeMB <= 0 {
			errs = append(errs, "file.max_size_mb must be positive")
		}
	}

	return joinErrs(errs)
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	var errs []string

	if m.Enabled && m.Path == "" {
		errs = append(errs, "path cannot be empty when metrics are enabled")
	}
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		errs = append(errs, "path must start with /")
	}

	return joinErrs(errs)
}

// Validate validates security settings.
func (s *SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
	}
	for i, key := range s.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("api_keys[%d] is empty", i))
		}
	}
	return joinErrs(errs)
}
