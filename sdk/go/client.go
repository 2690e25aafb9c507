package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"acrossfc/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the FC points HTTP + WebSocket API.
type Client struct {
	baseURL    string
	rootURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		rootURL:    deriveRootURL(baseURL),
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// Submit evaluates a fight and persists its awards.
func (c *Client) Submit(ctx context.Context, sub Submission) (SubmitResult, error) {
	var res SubmitResult
	err := c.submit(ctx, sub, false, &res)
	return res, err
}

// DryRun evaluates a fight without persisting any award.
func (c *Client) DryRun(ctx context.Context, sub Submission) (Evaluation, error) {
	var body struct {
		Evaluation Evaluation `json:"evaluation"`
	}
	err := c.submit(ctx, sub, true, &body)
	return body.Evaluation, err
}

func (c *Client) submit(ctx context.Context, sub Submission, dryRun bool, target any) error {
	if strings.TrimSpace(sub.FFLogsURL) == "" {
		return ErrEmptyURL
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	u := c.baseURL + "/submissions"
	if dryRun {
		u += "?dry_run=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

// MemberPoints fetches a member's points in the current tier.
func (c *Client) MemberPoints(ctx context.Context, member core.MemberID) (MemberPoints, error) {
	var mp MemberPoints
	err := c.get(ctx, fmt.Sprintf("%s/members/%d/points", c.baseURL, member), &mp)
	return mp, err
}

// Leaderboard fetches the top n members.
func (c *Client) Leaderboard(ctx context.Context, n int) (Leaderboard, error) {
	u := c.baseURL + "/leaderboard"
	if n > 0 {
		u += "?n=" + strconv.Itoa(n)
	}
	var lb Leaderboard
	err := c.get(ctx, u, &lb)
	return lb, err
}

// ClearRates fetches the clear rate report.
func (c *Client) ClearRates(ctx context.Context) (Report, error) {
	var r Report
	err := c.get(ctx, c.baseURL+"/reports/clear-rates", &r)
	return r, err
}

// ClearedJobs fetches the cleared jobs report, for one encounter when set.
func (c *Client) ClearedJobs(ctx context.Context, encounter string) (Report, error) {
	u := c.baseURL + "/reports/cleared-jobs"
	if encounter != "" {
		u += "?encounter=" + url.QueryEscape(encounter)
	}
	var r Report
	err := c.get(ctx, u, &r)
	return r, err
}

// Health calls /healthz at the server root.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	err := c.get(ctx, c.rootURL+"/healthz", &hs)
	return hs, err
}

func (c *Client) get(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	c.applyHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

// SubscribeEvents connects to the award stream and emits core.PointsEvent
// values, optionally filtered to one member and a set of categories.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, member core.MemberID, categories ...core.PointsCategory) (<-chan core.PointsEvent, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	wsURL := c.wsURL
	q := url.Values{}
	if member != 0 {
		q.Set("member", member.String())
	}
	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, cat := range categories {
			cats[i] = string(cat)
		}
		q.Set("category", strings.Join(cats, ","))
	}
	if len(q) > 0 {
		wsURL += "?" + q.Encode()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.PointsEvent, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.PointsEvent
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveRootURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return httpBase
	}
	u.Path = ""
	u.RawQuery = ""
	return strings.TrimSuffix(u.String(), "/")
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
