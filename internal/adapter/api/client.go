// Package api is the REST client for the 세특 backend.
package api

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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"seteuk/internal/domain"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Recorder receives per-request metrics.
type Recorder interface {
	RecordRequest(endpoint string, status int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, int, time.Duration) {}

// Client talks to the backend over HTTP. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	tokens         oauth2.TokenSource
	limiter        *rate.Limiter
	rec            Recorder
	log            *slog.Logger
	onUnauthorized func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource supplies the bearer token. Chat and history calls go out
// anonymous when ts reports domain.ErrNotAuthenticated.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithRateLimit caps outgoing requests to r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.rec = rec
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithUnauthorizedHook registers fn to run when a request that carried a
// bearer token comes back 401.
func WithUnauthorizedHook(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 60 * time.Second},
		rec:  nopRecorder{},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// authMode says whether a call carries the session token.
type authMode int

const (
	authNone authMode = iota
	// authOptional sends the token when there is one and goes out anonymous otherwise.
	authOptional
	authRequired
)

type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     any
	auth     authMode
}

func (c *Client) do(ctx context.Context, rc call, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var body io.Reader
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", rc.endpoint, err)
		}
		body = bytes.NewReader(data)
	}

	u := *c.base
	u.Path = c.base.Path + rc.path
	if len(rc.query) > 0 {
		u.RawQuery = rc.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, rc.method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	bearer, err := c.authorize(req, rc)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.rec.RecordRequest(rc.endpoint, 0, elapsed)
		return fmt.Errorf("%s: %w", rc.endpoint, err)
	}
	defer resp.Body.Close()
	c.rec.RecordRequest(rc.endpoint, resp.StatusCode, elapsed)

	c.log.Debug("api request",
		slog.String("endpoint", rc.endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
		slog.String("request_id", reqID),
	)

	if resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && bearer && c.onUnauthorized != nil {
			c.log.Info("backend rejected session token, logging out", slog.String("endpoint", rc.endpoint))
			c.onUnauthorized(ctx)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rc.endpoint, err)
	}
	return nil
}

// authorize sets the bearer header for rc and reports whether it did.
func (c *Client) authorize(req *http.Request, rc call) (bool, error) {
	if rc.auth == authNone || c.tokens == nil {
		return false, nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		if rc.auth == authOptional && errors.Is(err, domain.ErrNotAuthenticated) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", rc.endpoint, err)
	}
	tok.SetAuthHeader(req)
	return true, nil
}

// Subjects lists the subjects the backend accepts.
func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	var out struct {
		Subjects []string `json:"subjects"`
	}
	err := c.do(ctx, call{endpoint: "subjects", method: http.MethodGet, path: "/api/chat/subjects"}, &out)
	if err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// Ask sends one question and returns the stored answer.
func (c *Client) Ask(ctx context.Context, req domain.ChatRequest) (domain.ChatEntry, error) {
	var out domain.ChatEntry
	err := c.do(ctx, call{endpoint: "chat", method: http.MethodPost, path: "/api/chat", body: req, auth: authOptional}, &out)
	return out, err
}

// History returns one page of past questions.
func (c *Client) History(ctx context.Context, q domain.HistoryQuery) (domain.HistoryPage, error) {
	q = q.Normalize()
	params := url.Values{}
	params.Set("skip", strconv.Itoa(q.Skip))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Subject != "" {
		params.Set("subject", q.Subject)
	}
	var out domain.HistoryPage
	err := c.do(ctx, call{endpoint: "history", method: http.MethodGet, path: "/api/history", query: params, auth: authOptional}, &out)
	return out, err
}

// HistoryDetail returns a single history entry.
func (c *Client) HistoryDetail(ctx context.Context, id int64) (domain.ChatEntry, error) {
	var out domain.ChatEntry
	err := c.do(ctx, call{
		endpoint: "history_detail",
		method:   http.MethodGet,
		path:     "/api/history/" + strconv.FormatInt(id, 10),
		auth:     authOptional,
	}, &out)
	if IsStatus(err, http.StatusNotFound) {
		return out, fmt.Errorf("history %d: %w", id, domain.ErrHistoryNotFound)
	}
	return out, err
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, r domain.Registration) (domain.User, error) {
	var out domain.User
	err := c.do(ctx, call{endpoint: "register", method: http.MethodPost, path: "/api/auth/register", body: r}, &out)
	return out, err
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, cred domain.Credentials) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	err := c.do(ctx, call{endpoint: "login", method: http.MethodPost, path: "/api/auth/login", body: cred}, &out)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("login: response has no access_token")
	}
	return out.AccessToken, nil
}

// Me returns the profile of the user the token belongs to. A token may be
// passed explicitly for the window between login and SetAuth; otherwise the
// configured TokenSource is used.
func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var out domain.User
	if token == "" {
		err := c.do(ctx, call{endpoint: "me", method: http.MethodGet, path: "/api/auth/me", auth: authRequired}, &out)
		return out, err
	}
	scoped := *c
	scoped.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	scoped.onUnauthorized = nil
	err := scoped.do(ctx, call{endpoint: "me", method: http.MethodGet, path: "/api/auth/me", auth: authRequired}, &out)
	return out, err
}

var (
	_ domain.AuthGateway = (*Client)(nil)
	_ domain.ChatGateway = (*Client)(nil)
)
