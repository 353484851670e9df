// Package stream manages one venue streaming subscription over a persistent
// websocket connection.
//
// A Session is driven by a venue Rule: how to obtain a session token, how to
// authenticate and subscribe after the connection opens, how to decompress
// and classify incoming frames, and how to probe liveness. Each Connect
// starts a new generation with its own event loop and timers; Disconnect
// cancels the generation so nothing from it fires afterwards. Reconnecting
// is left to the caller.
package stream

import (
	"context"
	"time"

	"venuelink/internal/ws"
	"venuelink/pkg/core"
)

// Transport types. The default Dialer is backed by gws.
type (
	Dialer  = ws.Dialer
	Conn    = ws.Conn
	Handler = ws.Handler
)

// Stream is the lifecycle surface shared by sessions.
type Stream interface {
	Connect(ctx context.Context) error
	Disconnect() error
	State() State
}

var _ Stream = (*Session)(nil)

// Config holds session timing.
type Config struct {
	HeartbeatInterval time.Duration `validate:"min=1ms"`
	HeartbeatTimeout  time.Duration `validate:"min=1ms"`
	TokenRenewal      time.Duration `validate:"min=1ms"`
	// RenewalAttempts bounds the tries of one renewal before the failure is reported.
	RenewalAttempts uint `validate:"min=1"`
	// RenewalBackoff is the initial wait between renewal tries.
	RenewalBackoff time.Duration `validate:"min=0"`
	// EventBuffer is the capacity of the per-connection event queue.
	EventBuffer int `validate:"min=1"`
}

// DefaultConfig probes every 5s with a 5s timeout and renews tokens every 30 minutes.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: 5 * time.Second,
		HeartbeatTimeout:  5 * time.Second,
		TokenRenewal:      30 * time.Minute,
		RenewalAttempts:   3,
		RenewalBackoff:    time.Second,
		EventBuffer:       256,
	}
}

// ConfigFrom applies the stream section of a venue config on top of DefaultConfig.
func ConfigFrom(c core.StreamConfig) Config {
	cfg := DefaultConfig()
	if c.HeartbeatInterval > 0 {
		cfg.HeartbeatInterval = c.HeartbeatInterval
	}
	if c.HeartbeatTimeout > 0 {
		cfg.HeartbeatTimeout = c.HeartbeatTimeout
	}
	if c.TokenRenewal > 0 {
		cfg.TokenRenewal = c.TokenRenewal
	}
	if c.RenewalAttempts > 0 {
		cfg.RenewalAttempts = c.RenewalAttempts
	}
	return cfg
}
