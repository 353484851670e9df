package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RateLimitConfig bounds the outgoing request rate of a REST client.
type RateLimitConfig struct {
	Requests int           `json:"requests" yaml:"requests" validate:"min=0"`
	Period   time.Duration `json:"period" yaml:"period" validate:"required_with=Requests,min=0"`
}

// CircuitBreakerConfig controls the optional fail-fast breaker in front of the HTTP executor.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled" yaml:"enabled"`
	FailThreshold    int           `json:"fail_threshold" yaml:"fail_threshold" validate:"min=0"`
	SuccessThreshold int           `json:"success_threshold" yaml:"success_threshold" validate:"min=0"`
	Cooldown         time.Duration `json:"cooldown" yaml:"cooldown" validate:"min=0"`
}

// StreamConfig holds the timing of streaming sessions.
type StreamConfig struct {
	// HeartbeatInterval is the delay between an acknowledged probe and the next one.
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval" validate:"min=1ms"`
	// HeartbeatTimeout is how long a probe may stay unacknowledged before the connection is closed.
	HeartbeatTimeout time.Duration `json:"heartbeat_timeout" yaml:"heartbeat_timeout" validate:"min=1ms"`
	// TokenRenewal is the session-token refresh period.
	TokenRenewal    time.Duration `json:"token_renewal" yaml:"token_renewal" validate:"min=1ms"`
	RenewalAttempts uint          `json:"renewal_attempts" yaml:"renewal_attempts" validate:"min=1"`
}

// Config contains the options shared by REST clients and streaming sessions of one venue.
type Config struct {
	Venue       string       `json:"venue" yaml:"venue" validate:"required"`
	Market      MarketType   `json:"market" yaml:"market"`
	Sandbox     bool         `json:"sandbox" yaml:"sandbox"`
	BaseURL     string       `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Credentials *Credentials `json:"credentials,omitempty" yaml:"credentials,omitempty"`

	// Timeout is the maximum duration for HTTP requests. It has no implicit default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"required,min=1ms"`

	RateLimit      RateLimitConfig      `json:"rate_limit" yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
	Stream         StreamConfig         `json:"stream" yaml:"stream"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
}

// DefaultConfig returns a Config for the venue with a 5s request timeout,
// 5s/5s heartbeat, 30 minute token renewal and no rate limit.
func DefaultConfig(venue string) *Config {
	return &Config{
		Venue:   venue,
		Market:  MarketTypeSpot,
		Timeout: 5 * time.Second,
		CircuitBreaker: CircuitBreakerConfig{
			FailThreshold:    5,
			SuccessThreshold: 2,
			Cooldown:         30 * time.Second,
		},
		Stream: StreamConfig{
			HeartbeatInterval: 5 * time.Second,
			HeartbeatTimeout:  5 * time.Second,
			TokenRenewal:      30 * time.Minute,
			RenewalAttempts:   3,
		},
		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailThreshold <= 0 {
			return errors.New("CircuitBreaker.FailThreshold must be positive when enabled")
		}
		if c.CircuitBreaker.SuccessThreshold <= 0 {
			return errors.New("CircuitBreaker.SuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreaker.Cooldown <= 0 {
			return errors.New("CircuitBreaker.Cooldown must be positive when enabled")
		}
	}
	return nil
}

// LoadConfig reads a YAML file on top of DefaultConfig and validates the result.
// Credentials missing from the file are looked up in the environment under
// the upper-cased venue prefix (BINANCE_API_KEY, ...).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for an in-memory document.
func ParseConfig(data []byte) (*Config, error) {
	var probe struct {
		Venue string `yaml:"venue"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg := DefaultConfig(probe.Venue)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Credentials == nil && cfg.Venue != "" {
		creds, err := CredentialsFromEnv(cfg.Venue)
		if err != nil {
			return nil, err
		}
		if !creds.Empty() {
			cfg.Credentials = creds
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithMarket selects the market whose base URL the venue should use.
func (c *Config) WithMarket(market MarketType) *Config {
	c.Market = market
	return c
}

// WithSandbox enables or disables sandbox mode and returns the config for chaining.
func (c *Config) WithSandbox(sandbox bool) *Config {
	c.Sandbox = sandbox
	return c
}

// WithBaseURL overrides the venue base URL.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimit = RateLimitConfig{Requests: requests, Period: period}
	return c
}

// WithCircuitBreaker enables the breaker with the given thresholds.
func (c *Config) WithCircuitBreaker(failures, successes int, cooldown time.Duration) *Config {
	c.CircuitBreaker = CircuitBreakerConfig{
		Enabled:          true,
		FailThreshold:    failures,
		SuccessThreshold: successes,
		Cooldown:         cooldown,
	}
	return c
}

// WithHeartbeat sets the streaming probe interval and acknowledgement timeout.
func (c *Config) WithHeartbeat(interval, timeout time.Duration) *Config {
	c.Stream.HeartbeatInterval = interval
	c.Stream.HeartbeatTimeout = timeout
	return c
}

// WithTokenRenewal sets the session-token refresh period and attempts per refresh.
func (c *Config) WithTokenRenewal(every time.Duration, attempts uint) *Config {
	c.Stream.TokenRenewal = every
	c.Stream.RenewalAttempts = attempts
	return c
}
