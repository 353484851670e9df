// Package rest builds and executes signed venue HTTP calls.
//
// A Client pairs a venue signing scheme with credentials and an HTTP
// executor. Every call builds a fresh core.SignedRequest, so concurrent
// calls never share a timestamp or nonce. Calls are never retried.
package rest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"venuelink/internal/circuitbreaker"
	"venuelink/internal/ratelimit"
	"venuelink/internal/transport"
	"venuelink/pkg/core"
	"venuelink/pkg/sign"
)

// Signer derives the authenticated parts of a request for one auth class.
// *sign.Scheme is the implementation used by every venue.
type Signer interface {
	Sign(auth core.AuthClass, in sign.Input, creds *core.Credentials) (*sign.Output, error)
	ParamsInBody(method string) bool
}

var _ Signer = (*sign.Scheme)(nil)

// Client is safe for concurrent use.
type Client struct {
	venue   string
	baseURL string
	host    string
	signer  Signer
	creds   *core.Credentials
	http    *transport.Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.Breaker
	detect  ErrorDetector
	logger  zerolog.Logger
	optErr  error
}

type Option func(*Client)

// WithCredentials overrides cfg.Credentials.
func WithCredentials(creds core.Credentials) Option {
	return func(c *Client) {
		c.creds = &creds
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithErrorDetector replaces DefaultDetector for 2xx bodies.
func WithErrorDetector(detect ErrorDetector) Option {
	return func(c *Client) {
		c.detect = detect
	}
}

// WithBucketLimit adds a rate limit for one auth class on top of
// cfg.RateLimit. It applies even when cfg.RateLimit is unset.
func WithBucketLimit(auth core.AuthClass, requests int, period time.Duration) Option {
	return func(c *Client) {
		if requests <= 0 || period <= 0 {
			c.optErr = fmt.Errorf("%s bucket limit: requests and period must be positive", auth)
			return
		}
		if c.limiter == nil {
			c.limiter = ratelimit.Unlimited()
		}
		c.limiter.SetBucketLimit(auth.String(), requests, period)
	}
}

// New creates a client for baseURL. cfg.BaseURL, when set, takes precedence.
func New(cfg *core.Config, baseURL string, signer Signer, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		venue:   cfg.Venue,
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    u.Host,
		signer:  signer,
		detect:  DefaultDetector,
		logger:  zerolog.Nop(),
	}
	if cfg.Credentials != nil {
		creds := *cfg.Credentials
		c.creds = &creds
	}
	if cfg.RateLimit.Requests > 0 {
		c.limiter = ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Period)
	}
	if cfg.CircuitBreaker.Enabled {
		c.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    cfg.CircuitBreaker.FailThreshold,
			SuccessThreshold: cfg.CircuitBreaker.SuccessThreshold,
			Cooldown:         cfg.CircuitBreaker.Cooldown,
		})
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.optErr != nil {
		return nil, c.optErr
	}

	c.logger = c.logger.With().Str("venue", c.venue).Logger()
	c.http, err = transport.NewClient(&transport.Config{Timeout: cfg.Timeout}, c.logger)
	if err != nil {
		return nil, err
	}
	if c.creds != nil {
		c.logger.Debug().Object("credentials", *c.creds).Msg("rest client ready")
	}
	return c, nil
}

// Venue returns the venue name from the config.
func (c *Client) Venue() string {
	return c.venue
}

// BaseURL returns the URL every call path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Build derives the signed request for call without sending it.
func (c *Client) Build(auth core.AuthClass, call core.Call) (*core.SignedRequest, error) {
	out, err := c.signer.Sign(auth, sign.Input{
		Method: call.Method,
		Host:   c.host,
		Path:   call.Path,
		Query:  call.Query,
		Body:   call.Body,
	}, c.creds)
	if err != nil {
		return nil, err
	}
	return &core.SignedRequest{
		Method:    strings.ToUpper(call.Method),
		URL:       c.baseURL + call.Path + sign.QuerySuffix(out.Query),
		Headers:   out.Headers,
		Body:      out.Body,
		Canonical: out.Canonical,
	}, nil
}

// NewCall places params in the query, or in the JSON body for venues that
// send POST and PUT parameters as a body.
func (c *Client) NewCall(path, method string, params core.Params) core.Call {
	call := core.Call{Method: strings.ToUpper(method), Path: path}
	if c.signer.ParamsInBody(method) {
		if len(params) > 0 {
			call.Body = params
		}
	} else {
		call.Query = params
	}
	return call
}

// Public performs an unauthenticated call.
func (c *Client) Public(ctx context.Context, path, method string, params core.Params) (*Result, error) {
	return c.Send(ctx, core.AuthPublic, c.NewCall(path, method, params), 1)
}

// Key performs a call identified by API key only.
func (c *Client) Key(ctx context.Context, path, method string, params core.Params) (*Result, error) {
	return c.Send(ctx, core.AuthKey, c.NewCall(path, method, params), 1)
}

// Private performs a fully signed call.
func (c *Client) Private(ctx context.Context, path, method string, params core.Params) (*Result, error) {
	return c.Send(ctx, core.AuthPrivate, c.NewCall(path, method, params), 1)
}

// Do performs the call described by a routing-table entry. Path
// parameters such as "{order_id}" are taken out of params.
func (c *Client) Do(ctx context.Context, route core.Route, params core.Params) (*Result, error) {
	route, params, err := route.Expand(params)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, route.Auth, c.NewCall(route.Path, route.Method, params), route.Cost())
}

// Send waits for rate-limit capacity, signs call and executes it. The
// request is signed after the wait so timestamps are taken at send time.
func (c *Client) Send(ctx context.Context, auth core.AuthClass, call core.Call, weight int) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, auth.String(), weight); err != nil {
			return nil, err
		}
	}

	req, err := c.Build(auth, call)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", call.Method, call.Path, err)
	}

	if c.breaker != nil && !c.breaker.Allow() {
		e := core.NewTransportError(c.venue, core.ErrCircuitOpen)
		return nil, e.WithCode(core.ErrCodeCircuitOpen)
	}

	resp, err := c.http.Execute(ctx, req)
	if err != nil {
		c.record(false)
		return nil, core.NewTransportError(c.venue, err)
	}
	c.record(resp.StatusCode < 500)

	result := parseResult(resp.StatusCode, resp.Headers, resp.Body)
	log := c.logger.Debug()
	if resp.IsError() {
		log = c.logger.Warn()
	}
	log.Str("auth", auth.String()).
		Str("method", req.Method).
		Str("path", call.Path).
		Int("status", resp.StatusCode).
		Dur("duration", resp.Duration).
		Msg("venue call")

	if resp.IsError() {
		return nil, core.NewUpstreamError(c.venue, resp.StatusCode, result.Value)
	}
	if c.detect != nil && c.detect(result.Value) {
		return nil, core.NewUpstreamError(c.venue, resp.StatusCode, result.Value)
	}
	return result, nil
}

func (c *Client) record(success bool) {
	if c.breaker != nil {
		c.breaker.Record(success)
	}
}

// RateLimitMetrics returns limiter statistics, zero when no limit is configured.
func (c *Client) RateLimitMetrics() ratelimit.MetricsSnapshot {
	if c.limiter == nil {
		return ratelimit.MetricsSnapshot{}
	}
	return c.limiter.Metrics()
}

func (c *Client) Close() error {
	return c.http.Close()
}
