package core

import (
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("binance")

	assert.Equal(t, "binance", config.Venue)
	assert.Equal(t, MarketTypeSpot, config.Market)
	assert.False(t, config.Sandbox)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, 5*time.Second, config.Stream.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, config.Stream.HeartbeatTimeout)
	assert.Equal(t, 30*time.Minute, config.Stream.TokenRenewal)
	assert.Equal(t, uint(3), config.Stream.RenewalAttempts)
	assert.False(t, config.CircuitBreaker.Enabled)
	assert.Equal(t, "info", config.LogLevel)
	require.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid_config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing_venue",
			mutate:  func(c *Config) { c.Venue = "" },
			wantErr: true,
			errMsg:  "Venue",
		},
		{
			name:    "timeout_is_required",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name:    "negative_timeout",
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name:    "bad_base_url",
			mutate:  func(c *Config) { c.BaseURL = "not a url" },
			wantErr: true,
			errMsg:  "BaseURL",
		},
		{
			name:    "rate_limit_without_period",
			mutate:  func(c *Config) { c.RateLimit.Requests = 10 },
			wantErr: true,
			errMsg:  "Period",
		},
		{
			name: "negative_rate_limit_period",
			mutate: func(c *Config) {
				c.RateLimit.Requests = 10
				c.RateLimit.Period = -time.Second
			},
			wantErr: true,
			errMsg:  "Period",
		},
		{
			name: "breaker_without_threshold",
			mutate: func(c *Config) {
				c.CircuitBreaker.Enabled = true
				c.CircuitBreaker.FailThreshold = 0
			},
			wantErr: true,
			errMsg:  "FailThreshold",
		},
		{
			name:    "zero_heartbeat_timeout",
			mutate:  func(c *Config) { c.Stream.HeartbeatTimeout = 0 },
			wantErr: true,
			errMsg:  "HeartbeatTimeout",
		},
		{
			name:    "unknown_log_level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: true,
			errMsg:  "LogLevel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("binance")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errMsg), err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	creds := &Credentials{APIKey: "k", SecretKey: "s"}
	cfg := DefaultConfig("okex").
		WithCredentials(creds).
		WithMarket(MarketTypeLinearFutures).
		WithSandbox(true).
		WithTimeout(2*time.Second).
		WithRateLimit(20, time.Second).
		WithCircuitBreaker(3, 1, time.Second).
		WithHeartbeat(time.Second, 2*time.Second).
		WithTokenRenewal(time.Minute, 5)

	assert.Same(t, creds, cfg.Credentials)
	assert.Equal(t, MarketTypeLinearFutures, cfg.Market)
	assert.True(t, cfg.Sandbox)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, RateLimitConfig{Requests: 20, Period: time.Second}, cfg.RateLimit)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Stream.HeartbeatTimeout)
	assert.Equal(t, uint(5), cfg.Stream.RenewalAttempts)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`
venue: huobi
market: inverse
timeout: 3s
credentials:
  api_key: key-from-file
  secret_key: secret-from-file
stream:
  heartbeat_interval: 1s
  heartbeat_timeout: 2s
  token_renewal: 10m
  renewal_attempts: 2
`)
	cfg, err := ParseConfig(doc)
	require.NoError(t, err)

	assert.Equal(t, "huobi", cfg.Venue)
	assert.Equal(t, MarketTypeInverseFutures, cfg.Market)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "key-from-file", cfg.Credentials.APIKey)
	assert.Equal(t, time.Second, cfg.Stream.HeartbeatInterval)
	assert.Equal(t, 10*time.Minute, cfg.Stream.TokenRenewal)
	assert.Equal(t, "info", cfg.LogLevel, "defaults survive partial documents")
}

func TestParseConfig_CredentialsFromEnv(t *testing.T) {
	t.Setenv("DERIBIT_API_KEY", "env-key")
	t.Setenv("DERIBIT_SECRET_KEY", "env-secret")

	cfg, err := ParseConfig([]byte("venue: deribit\ntimeout: 1s\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Credentials)
	assert.Equal(t, "env-key", cfg.Credentials.APIKey)
	assert.Equal(t, "env-secret", cfg.Credentials.SecretKey)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("venue: bitmex\nmarket: perpetual\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("timeout: 1s\n"))
	assert.Error(t, err)
}

func TestCredentials_NeverPrintSecret(t *testing.T) {
	creds := Credentials{APIKey: "abcdefghijkl", SecretKey: "super-secret", Passphrase: "pass"}

	s := creds.String()
	assert.Contains(t, s, "abcd****ijkl")
	assert.NotContains(t, s, "super-secret")
	assert.NotContains(t, s, "pass")

	var short Credentials
	short.APIKey = "abc"
	assert.Contains(t, short.String(), "****")
}

func TestConfig_MarshalMasksSecrets(t *testing.T) {
	cfg := DefaultConfig("okex").WithCredentials(&Credentials{
		APIKey:     "abcdefghijkl",
		SecretKey:  "super-secret",
		Passphrase: "pass-phrase",
		Subaccount: "desk",
	})

	asJSON, err := sonic.Marshal(cfg)
	require.NoError(t, err)
	asYAML, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	for _, out := range []string{string(asJSON), string(asYAML)} {
		assert.Contains(t, out, "abcd****ijkl")
		assert.Contains(t, out, "desk")
		assert.NotContains(t, out, "super-secret")
		assert.NotContains(t, out, "pass-phrase")
	}

	parsed, err := ParseConfig([]byte("venue: okex\ncredentials:\n  api_key: k\n  secret_key: s\n  passphrase: p\n"))
	require.NoError(t, err)
	assert.Equal(t, &Credentials{APIKey: "k", SecretKey: "s", Passphrase: "p"}, parsed.Credentials)
}

func TestCredentials_CanSign(t *testing.T) {
	var nilCreds *Credentials
	assert.False(t, nilCreds.CanSign())
	assert.True(t, nilCreds.Empty())
	assert.False(t, (&Credentials{APIKey: "k"}).CanSign())
	assert.True(t, (&Credentials{APIKey: "k", SecretKey: "s"}).CanSign())
}
