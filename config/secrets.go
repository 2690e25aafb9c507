package config

import (
	"context"
	"fmt"
	"os"
)

// SecretStore resolves credentials by key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore { return &EnvironmentSecretStore{} }

func (EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("secret %s is not set", key)
	}
	return v, nil
}

func (s EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	if v, err := s.Get(ctx, key); err == nil {
		return v
	}
	return def
}

// Well-known secret keys.
const (
	SecretFFLogsClientID     = "FFLOGS_CLIENT_ID"
	SecretFFLogsClientSecret = "FFLOGS_CLIENT_SECRET"
	SecretDiscordBotToken    = "DISCORD_BOT_TOKEN"
)

// resolveSecrets fills unset credentials from the store.
func resolveSecrets(cfg *Config, store SecretStore) {
	ctx := context.Background()
	if cfg.FFLogs.ClientID == "" {
		cfg.FFLogs.ClientID = store.GetWithDefault(ctx, SecretFFLogsClientID, "")
	}
	if cfg.FFLogs.ClientSecret == "" {
		cfg.FFLogs.ClientSecret = store.GetWithDefault(ctx, SecretFFLogsClientSecret, "")
	}
	if cfg.Discord.BotToken == "" {
		cfg.Discord.BotToken = store.GetWithDefault(ctx, SecretDiscordBotToken, "")
	}
}
