// Package fflogs fetches fights, guild rosters, and clear history from the
// FFLogs v2 GraphQL API.
package fflogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/machinebox/graphql"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"acrossfc/core"
)

const (
	DefaultTokenURL = "https://www.fflogs.com/oauth/token"
	DefaultAPIURL   = "https://www.fflogs.com/api/v2/client"
)

// Config holds FFLogs API settings.
type Config struct {
	ClientID          string
	ClientSecret      string
	GuildID           int
	ExcludeRanks      []int
	TokenURL          string
	APIURL            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns production endpoints and conservative limits.
func DefaultConfig() Config {
	return Config{
		TokenURL:          DefaultTokenURL,
		APIURL:            DefaultAPIURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
	}
}

// Client is an FFLogs API client. It is safe for concurrent use.
type Client struct {
	cfg    Config
	gql    *graphql.Client
	logger *slog.Logger
	calls  atomic.Int64

	rosterMu sync.Mutex
	roster   []core.Member
	byID     map[core.MemberID]core.Member
}

// New returns a client that authenticates with the OAuth2 client
// credentials grant. The token is fetched lazily and refreshed on expiry.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg = withDefaults(cfg)
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	base := &http.Client{Timeout: cfg.Timeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = cfg.Timeout
	return NewWithHTTPClient(cfg, hc, logger)
}

// NewWithHTTPClient sends queries through hc; the caller handles
// authorization. Rate limiting and call counting wrap hc's transport.
func NewWithHTTPClient(cfg Config, hc *http.Client, logger *slog.Logger) *Client {
	cfg = withDefaults(cfg)
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{cfg: cfg, logger: logger.With("component", "fflogs")}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	metered := &http.Client{
		Transport: &transport{
			next:    next,
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			calls:   &c.calls,
		},
		Timeout: hc.Timeout,
	}
	c.gql = graphql.NewClient(cfg.APIURL, graphql.WithHTTPClient(metered))
	return c
}

func withDefaults(cfg Config) Config {
	d := DefaultConfig()
	if cfg.TokenURL == "" {
		cfg.TokenURL = d.TokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = d.APIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = d.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = d.Burst
	}
	return cfg
}

// APICallCount returns the number of GraphQL requests sent.
func (c *Client) APICallCount() int64 { return c.calls.Load() }

// transport meters every GraphQL request: it waits on the client's rate
// limiter, counts the call and turns non-2xx responses into errors.
type transport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	calls   *atomic.Int64
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.calls.Add(1)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, nil
}

// query runs a GraphQL query and decodes its data into out. GraphQL errors
// are returned as Go errors.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	var data json.RawMessage
	if err := c.gql.Run(ctx, req, &data); err != nil {
		c.logger.Debug("API request failed", "error", err)
		return fmt.Errorf("fflogs query failed: %w", err)
	}
	if len(data) == 0 || string(data) == "null" {
		return errors.New("graphql: empty data")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
