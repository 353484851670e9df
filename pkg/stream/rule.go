package stream

import (
	"context"
	"errors"
	"net/http"
)

// TokenSource issues and refreshes the session token ("listen key") some
// venues require in the stream URL.
type TokenSource interface {
	Issue(ctx context.Context) (string, error)
	Renew(ctx context.Context, token string) error
}

// HeartbeatMode selects how liveness is probed.
type HeartbeatMode int

const (
	// HeartbeatNone sends no probes; servers that ping are answered by the transport.
	HeartbeatNone HeartbeatMode = iota
	// HeartbeatPing probes with websocket ping frames, acknowledged by pong frames.
	HeartbeatPing
	// HeartbeatMessage probes with an application message; Classify reports the acknowledgement.
	HeartbeatMessage
)

type Heartbeat struct {
	Mode  HeartbeatMode
	Probe []byte
}

// Control is what classification found in one message. The message is
// forwarded to message listeners regardless.
type Control struct {
	// Replies are sent back immediately, e.g. pongs to application-level pings.
	Replies [][]byte
	// Pong acknowledges the outstanding heartbeat probe.
	Pong bool
	// Authenticated acknowledges the auth payload; the subscription follows.
	Authenticated bool
	// AuthRejected fails the session with an AuthenticationError.
	AuthRejected bool
}

// Rule is one venue's session handshake: everything a Session needs to know
// beyond the transport.
type Rule struct {
	Venue string `validate:"required"`
	URL   string `validate:"required"`

	// Header returns extra handshake headers, e.g. signed identity headers.
	Header func() (http.Header, error)

	Token TokenSource
	// Endpoint derives the dial URL from URL and the issued token.
	Endpoint func(url, token string) string

	// Auth builds the payload sent right after open on private streams.
	Auth func() ([]byte, error)
	// AwaitAuth holds the subscription until Classify reports Authenticated.
	AwaitAuth bool
	// Subscribe builds the subscription messages, sent in order. ack is the
	// acknowledging message when AwaitAuth is set, nil otherwise.
	Subscribe func(ack []byte) ([][]byte, error)

	Decode   Decoder
	Classify func(msg []byte) Control

	Heartbeat Heartbeat
}

func (r *Rule) validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.AwaitAuth && (r.Auth == nil || r.Classify == nil) {
		return errors.New("AwaitAuth needs both Auth and Classify")
	}
	if r.Heartbeat.Mode == HeartbeatMessage && (len(r.Heartbeat.Probe) == 0 || r.Classify == nil) {
		return errors.New("message heartbeat needs a Probe and Classify")
	}
	return nil
}
