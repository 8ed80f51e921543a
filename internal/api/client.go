package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	ghAPI "github.com/cli/go-gh/v2/pkg/api"
	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Buildkite REST API root.
	DefaultBaseURL = "https://api.buildkite.com/v2/"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 30 * time.Second

	// Buildkite allows 200 requests per minute per organization.
	defaultRate  = rate.Limit(200.0 / 60.0)
	defaultBurst = 10
)

// ErrNotFound is returned when the requested resource does not exist.
var ErrNotFound = errors.New("not found")

type Client struct {
	rest    *ghAPI.RESTClient
	baseURL *url.URL
	org     string
	limiter *rate.Limiter

	token     string
	transport http.RoundTripper
	timeout   time.Duration

	rateMu sync.Mutex
	rate   RateLimit
}

type RateLimit struct {
	Remaining int
	Limit     int
	Reset     int64
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithToken sends the token as a bearer credential. Without one the client
// assumes a proxy in front of the API injects credentials.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithTransport sets the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit overrides the request rate.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a client for org against baseURL, which may be the
// public API or a proxy with the same path layout.
func NewClient(baseURL, org string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:   u,
		org:       org,
		limiter:   rate.NewLimiter(defaultRate, defaultBurst),
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	// go-gh resolves gh's own config whenever the token is empty, so the
	// placeholder keeps it out of the picture; bearerTransport decides what
	// is actually sent.
	rest, err := ghAPI.NewRESTClient(ghAPI.ClientOptions{
		Host:               u.Hostname(),
		AuthToken:          "none",
		SkipDefaultHeaders: true,
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json; charset=utf-8",
		},
		Timeout:   c.timeout,
		Transport: &bearerTransport{token: c.token, next: c.transport, observe: c.observeRateLimit},
	})
	if err != nil {
		return nil, fmt.Errorf("create buildkite client: %w", err)
	}
	c.rest = rest
	return c, nil
}

// RateLimit returns the limits reported by the most recent response.
func (c *Client) RateLimit() RateLimit {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	return c.rate
}

func (c *Client) observeRateLimit(rl RateLimit) {
	c.rateMu.Lock()
	c.rate = rl
	c.rateMu.Unlock()
}

// Org returns the organization slug the client is scoped to.
func (c *Client) Org() string {
	return c.org
}

func (c *Client) orgPath(path string) string {
	return fmt.Sprintf("organizations/%s/%s", url.PathEscape(c.org), path)
}

func (c *Client) pipelinePath(pipeline, path string) string {
	p := "pipelines/" + url.PathEscape(pipeline)
	if path != "" {
		p += "/" + path
	}
	return c.orgPath(p)
}

// resolve turns an org-relative path into an absolute URL so go-gh does not
// prefix it with a GitHub host.
func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.resolve(path)
	log.Debug().Str("method", method).Str("url", target).Msg("buildkite request")

	err := c.rest.DoWithContext(ctx, method, target, reader, result)
	var httpErr *ghAPI.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	return err
}

func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var httpErr *ghAPI.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return 0
}

func ParseRateLimit(resp *http.Response) RateLimit {
	rl := RateLimit{}
	if resp == nil {
		return rl
	}
	rl.Remaining, _ = strconv.Atoi(resp.Header.Get("RateLimit-Remaining"))
	rl.Limit, _ = strconv.Atoi(resp.Header.Get("RateLimit-Limit"))
	rl.Reset, _ = strconv.ParseInt(resp.Header.Get("RateLimit-Reset"), 10, 64)
	return rl
}

type bearerTransport struct {
	token   string
	next    http.RoundTripper
	observe func(RateLimit)
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	} else {
		req.Header.Del("Authorization")
	}
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		if rl := ParseRateLimit(resp); rl.Limit > 0 {
			if t.observe != nil {
				t.observe(rl)
			}
			if rl.Remaining < rl.Limit/10 {
				log.Warn().Int("remaining", rl.Remaining).Int64("reset", rl.Reset).Msg("buildkite rate limit nearly exhausted")
			}
		}
	}
	return resp, err
}
