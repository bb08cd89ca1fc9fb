package topgg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://top.gg/api/"
	defaultUserAgent = "topgg-go (+https://github.com/qepting91/topgg)"
)

// HTTPDoer is the subset of http.Client the API client needs. Tests swap in
// recording fakes through WithHTTPClient.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPDoer = (*http.Client)(nil)

// Client talks to the bot-listing REST API. It is safe for concurrent use;
// all requests pass through a shared rate limiter so bursts from multiple
// goroutines are serialized instead of tripping the server-side limit.
type Client struct {
	httpClient HTTPDoer
	baseURL    *url.URL
	rawBaseURL string
	token      string
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP transport.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithBaseURL points the client at a different API root, usually a test
// server. The URL is validated by New, which fails on a malformed one.
func WithBaseURL(raw string) Option {
	return func(c *Client) { c.rawBaseURL = raw }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLimiter replaces the request pacer. The default allows one request per
// second.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger used for request debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client from an API token. Tokens belong to a listed bot and
// are issued on its webhooks page.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("topgg: empty API token")
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		userAgent:  defaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	base, err := parseBaseURL(c.rawBaseURL)
	if err != nil {
		return nil, err
	}
	c.baseURL = base

	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// parseBaseURL normalizes the API root with a trailing slash so request
// paths resolve under it instead of replacing its last segment.
func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		raw = defaultBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// GetUser fetches a user by their Discord ID.
func (c *Client) GetUser(ctx context.Context, id Snowflake) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "users/"+id.String(), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBot fetches a listed bot by its Discord ID.
func (c *Client) GetBot(ctx context.Context, id Snowflake) (*Bot, error) {
	var bot Bot
	if err := c.do(ctx, http.MethodGet, "bots/"+id.String(), nil, nil, &bot); err != nil {
		return nil, err
	}
	return &bot, nil
}

// GetBots searches the bot listing. A nil query returns the default page.
func (c *Client) GetBots(ctx context.Context, q *Query) ([]Bot, error) {
	var params url.Values
	if q != nil {
		var err error
		if params, err = q.Values(); err != nil {
			return nil, err
		}
	}
	var resp botsResponse
	if err := c.do(ctx, http.MethodGet, "bots", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetBotStats fetches the statistics the service has on record for a bot.
func (c *Client) GetBotStats(ctx context.Context, id Snowflake) (*BotStats, error) {
	var stats BotStats
	if err := c.do(ctx, http.MethodGet, "bots/"+id.String()+"/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PostStats publishes a statistics snapshot for the bot the token belongs
// to. Snapshots without a server count are rejected locally with ErrNoStats
// since the service would discard them anyway.
func (c *Client) PostStats(ctx context.Context, stats Stats) error {
	if stats.ServerCount == 0 {
		return ErrNoStats
	}
	return c.do(ctx, http.MethodPost, "bots/stats", nil, stats, nil)
}

// GetVoters lists the users who voted for a bot in the current cycle.
func (c *Client) GetVoters(ctx context.Context, id Snowflake) ([]Voter, error) {
	var voters []Voter
	if err := c.do(ctx, http.MethodGet, "bots/"+id.String()+"/votes", nil, nil, &voters); err != nil {
		return nil, err
	}
	return voters, nil
}

// HasVoted reports whether a user has voted for a bot within the last 12
// hours.
func (c *Client) HasVoted(ctx context.Context, botID, userID Snowflake) (bool, error) {
	params := url.Values{"userId": {userID.String()}}
	var resp votedResponse
	if err := c.do(ctx, http.MethodGet, "bots/"+botID.String()+"/votes", params, nil, &resp); err != nil {
		return false, err
	}
	return resp.Voted != 0, nil
}

// IsWeekend reports whether the weekend multiplier is active, during which
// votes count double.
func (c *Client) IsWeekend(ctx context.Context) (bool, error) {
	var resp weekendResponse
	if err := c.do(ctx, http.MethodGet, "weekend", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsWeekend, nil
}

// do runs one API request: it waits for the rate limiter, resolves the path
// against the base URL, attaches auth and content headers, maps error
// statuses and decodes the JSON response into dest when given.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "api request", slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		var body struct {
			RetryAfter int `json:"retry-after"`
		}
		// A malformed 429 body still surfaces as a ratelimit, just without
		// a wait hint.
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &RatelimitError{RetryAfter: time.Duration(body.RetryAfter) * time.Second}
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
}
