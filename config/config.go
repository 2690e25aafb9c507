package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"acrossfc/adapters/redis"
	"acrossfc/adapters/sqlx"
	"acrossfc/discord"
	"acrossfc/fflogs"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" yaml:"environment" env:"ACROSSFC_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"ACROSSFC_PROFILE"`

	// Free company and points tier
	FC FCConfig `json:"fc" yaml:"fc"`

	// External services
	FFLogs  FFLogsConfig  `json:"fflogs" yaml:"fflogs"`
	Discord DiscordConfig `json:"discord" yaml:"discord"`

	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Metrics and monitoring
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Security configuration
	Security SecurityConfig `json:"security" yaml:"security"`
}

// FCConfig identifies the free company and the active submissions tier.
type FCConfig struct {
	Name            string        `json:"name" yaml:"name" env:"ACROSSFC_FC_NAME"`
	Tier            string        `json:"tier" yaml:"tier" env:"ACROSSFC_FC_TIER"`
	GuildID         int           `json:"guild_id" yaml:"guild_id" env:"ACROSSFC_FC_GUILD_ID"`
	ExcludeRanks    []int         `json:"exclude_ranks" yaml:"exclude_ranks" env:"ACROSSFC_FC_EXCLUDE_RANKS"`
	SyncConcurrency int           `json:"sync_concurrency" yaml:"sync_concurrency" env:"ACROSSFC_FC_SYNC_CONCURRENCY"`
	SyncInterval    time.Duration `json:"sync_interval" yaml:"sync_interval" env:"ACROSSFC_FC_SYNC_INTERVAL"`
}

// FFLogsConfig holds the FFLogs API client settings. Credentials come from
// the secret store when unset.
type FFLogsConfig struct {
	ClientID          string        `json:"client_id" yaml:"client_id" env:"ACROSSFC_FFLOGS_CLIENT_ID"`
	ClientSecret      string        `json:"client_secret" yaml:"client_secret" env:"ACROSSFC_FFLOGS_CLIENT_SECRET"`
	TokenURL          string        `json:"token_url" yaml:"token_url" env:"ACROSSFC_FFLOGS_TOKEN_URL"`
	APIURL            string        `json:"api_url" yaml:"api_url" env:"ACROSSFC_FFLOGS_API_URL"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout" env:"ACROSSFC_FFLOGS_TIMEOUT"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second" env:"ACROSSFC_FFLOGS_RPS"`
	Burst             int           `json:"burst" yaml:"burst" env:"ACROSSFC_FFLOGS_BURST"`
}

// DiscordConfig holds the bot and webhook settings.
type DiscordConfig struct {
	BotToken        string   `json:"bot_token" yaml:"bot_token" env:"ACROSSFC_DISCORD_BOT_TOKEN"`
	AppID           string   `json:"app_id" yaml:"app_id" env:"ACROSSFC_DISCORD_APP_ID"`
	GuildID         string   `json:"guild_id" yaml:"guild_id" env:"ACROSSFC_DISCORD_GUILD_ID"`
	ActionChannelID string   `json:"action_channel_id" yaml:"action_channel_id" env:"ACROSSFC_DISCORD_ACTION_CHANNEL_ID"`
	BaseURL         string   `json:"base_url" yaml:"base_url" env:"ACROSSFC_DISCORD_BASE_URL"`
	WebhookURLs     []string `json:"webhook_urls" yaml:"webhook_urls" env:"ACROSSFC_DISCORD_WEBHOOK_URLS"`
	AwardNotices    bool     `json:"award_notices" yaml:"award_notices" env:"ACROSSFC_DISCORD_AWARD_NOTICES"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" yaml:"address" env:"ACROSSFC_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" yaml:"path_prefix" env:"ACROSSFC_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" yaml:"cors_origin" env:"ACROSSFC_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"ACROSSFC_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"ACROSSFC_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"ACROSSFC_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" env:"ACROSSFC_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"ACROSSFC_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string       `json:"adapter" yaml:"adapter" env:"ACROSSFC_STORAGE_ADAPTER"`
	Redis   redis.Config `json:"redis,omitempty" yaml:"redis,omitempty"`
	SQL     sqlx.Config  `json:"sql,omitempty" yaml:"sql,omitempty"`
	File    FileConfig   `json:"file,omitempty" yaml:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" yaml:"path" env:"ACROSSFC_STORAGE_FILE_PATH"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"ACROSSFC_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"ACROSSFC_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"ACROSSFC_LOG_OUTPUT"`
	File       LogFileConfig     `json:"file,omitempty" yaml:"file,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"ACROSSFC_LOG_ATTRIBUTES"`
}

// LogFileConfig configures rotated file output.
type LogFileConfig struct {
	Path       string `json:"path" yaml:"path" env:"ACROSSFC_LOG_FILE_PATH"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" env:"ACROSSFC_LOG_FILE_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" env:"ACROSSFC_LOG_FILE_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" env:"ACROSSFC_LOG_FILE_MAX_AGE_DAYS"`
	Compress   bool   `json:"compress" yaml:"compress" env:"ACROSSFC_LOG_FILE_COMPRESS"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" env:"ACROSSFC_METRICS_ENABLED"`
	Namespace string `json:"namespace" yaml:"namespace" env:"ACROSSFC_METRICS_NAMESPACE"`
	Path      string `json:"path" yaml:"path" env:"ACROSSFC_METRICS_PATH"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" yaml:"enable_rate_limit" env:"ACROSSFC_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" yaml:"api_keys,omitempty" env:"ACROSSFC_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" env:"ACROSSFC_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int `json:"burst_size" yaml:"burst_size" env:"ACROSSFC_SECURITY_RATE_LIMIT_BURST"`
}

// Load loads configuration from .env and environment variables and validates it
func Load() (*Config, error) {
	return load(DefaultConfig())
}

func load(cfg *Config) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	// Environment variables override file and profile values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	resolveSecrets(cfg, NewEnvironmentSecretStore())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from path without overriding set ones. A
// missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".json", ".yaml", ".yml":
	default:
		return errors.New("config file must have .json, .yaml, or .yml extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return load(cfg)
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	ff := fflogs.DefaultConfig()
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		FC: FCConfig{
			Name:            "Across",
			Tier:            "6_4",
			ExcludeRanks:    []int{},
			SyncConcurrency: 4,
			SyncInterval:    24 * time.Hour,
		},
		FFLogs: FFLogsConfig{
			TokenURL:          ff.TokenURL,
			APIURL:            ff.APIURL,
			Timeout:           ff.Timeout,
			RequestsPerSecond: ff.RequestsPerSecond,
			Burst:             ff.Burst,
		},
		Discord: DiscordConfig{
			BaseURL:     discord.DefaultBaseURL,
			WebhookURLs: []string{},
		},
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "memory",
			Redis:   redis.DefaultConfig(),
			SQL:     sqlx.DefaultConfig(sqlx.DriverPostgres),
			File: FileConfig{
				Path: "./data/acrossfc.json",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: LogFileConfig{
				Path:       "./logs/acrossfc.log",
				MaxSizeMB:  50,
				MaxBackups: 5,
				MaxAgeDays: 28,
			},
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "acrossfc",
			Path:      "/metrics",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
			},
			APIKeys: []string{},
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"fc", &c.FC},
		{"fflogs", &c.FFLogs},
		{"server", &c.Server},
		{"storage", &c.Storage},
		{"logging", &c.Logging},
		{"metrics", &c.Metrics},
		{"security", &c.Security},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s config: %v", s.name, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// FFLogsClientConfig converts the FC and FFLogs sections into client settings.
func (c *Config) FFLogsClientConfig() fflogs.Config {
	return fflogs.Config{
		ClientID:          c.FFLogs.ClientID,
		ClientSecret:      c.FFLogs.ClientSecret,
		GuildID:           c.FC.GuildID,
		ExcludeRanks:      append([]int(nil), c.FC.ExcludeRanks...),
		TokenURL:          c.FFLogs.TokenURL,
		APIURL:            c.FFLogs.APIURL,
		Timeout:           c.FFLogs.Timeout,
		RequestsPerSecond: c.FFLogs.RequestsPerSecond,
		Burst:             c.FFLogs.Burst,
	}
}

// DiscordClientConfig converts the Discord section into client settings.
func (c *Config) DiscordClientConfig() discord.Config {
	return discord.Config{
		BotToken:        c.Discord.BotToken,
		AppID:           c.Discord.AppID,
		GuildID:         c.Discord.GuildID,
		ActionChannelID: c.Discord.ActionChannelID,
		BaseURL:         c.Discord.BaseURL,
	}
}

const redacted = "[REDACTED]"

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = redacted
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = redacted
	}
	if cfg.FFLogs.ClientSecret != "" {
		cfg.FFLogs.ClientSecret = redacted
	}
	if cfg.Discord.BotToken != "" {
		cfg.Discord.BotToken = redacted
	}
	if len(cfg.Discord.WebhookURLs) > 0 {
		cfg.Discord.WebhookURLs = []string{redacted}
	}
	if len(cfg.Security.APIKeys) > 0 {
		cfg.Security.APIKeys = []string{redacted}
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
