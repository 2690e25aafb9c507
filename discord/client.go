// Package discord is the FC bot's Discord REST surface: guild command
// administration and webhook delivery, on discordgo sessions that never open
// the gateway.
package discord

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// DefaultBaseURL is the REST root discordgo targets.
var DefaultBaseURL = strings.TrimSuffix(discordgo.EndpointAPI, "/")

// Config identifies the bot and the FC's guild.
type Config struct {
	BotToken        string
	AppID           string
	GuildID         string
	ActionChannelID string
	BaseURL         string
	Timeout         time.Duration
}

// Client calls the Discord REST API as the FC bot.
type Client struct {
	cfg     Config
	session *discordgo.Session
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := NewSession("Bot "+cfg.BotToken, cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, session: s, logger: logger.With("component", "discord")}, nil
}

// NewSession returns a REST only session. A baseURL other than
// DefaultBaseURL reroutes every request under it.
func NewSession(token, baseURL string, timeout time.Duration) (*discordgo.Session, error) {
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var rt http.RoundTripper = http.DefaultTransport
	if base := strings.TrimRight(baseURL, "/"); base != "" && base != DefaultBaseURL {
		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid discord base url %q", baseURL)
		}
		rt = &rebase{base: u, next: rt}
	}
	s.Client = &http.Client{Timeout: timeout, Transport: rt}
	return s, nil
}

var apiPrefix = func() string {
	u, err := url.Parse(discordgo.EndpointAPI)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}()

// rebase rewrites discordgo's fixed endpoints onto another root.
type rebase struct {
	base *url.URL
	next http.RoundTripper
}

func (r *rebase) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.base.Scheme
	out.URL.Host = r.base.Host
	out.URL.Path = r.base.Path + strings.TrimPrefix(req.URL.Path, apiPrefix)
	out.URL.RawPath = ""
	out.Host = r.base.Host
	return r.next.RoundTrip(out)
}

// ParseWebhookURL extracts the id and token from
// https://discord.com/api/webhooks/{id}/{token}.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "webhooks" && i+2 < len(parts) && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid webhook url %q: want .../webhooks/{id}/{token}", u.Redacted())
}
