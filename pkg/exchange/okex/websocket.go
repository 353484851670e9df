package okex

import (
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const (
	PublicStreamURL  = "wss://ws.okx.com:8443/ws/v5/public"
	PrivateStreamURL = "wss://ws.okx.com:8443/ws/v5/private"
	V3StreamURL      = "wss://real.okex.com:8443/ws/v3"
)

const verifyPath = "/users/self/verify"

// loginSignature is the base64 HMAC of timestamp + "GET/users/self/verify".
func loginSignature(secret, timestamp string) string {
	return sign.HMACSHA256Base64.SumString(secret, timestamp+"GET"+verifyPath)
}

// Arg is one v5 subscription, e.g. {Channel: "tickers", InstID: "BTC-USDT"}.
type Arg struct {
	Channel  string `json:"channel"`
	InstType string `json:"instType,omitempty"`
	InstID   string `json:"instId,omitempty"`
}

type request struct {
	Op   string `json:"op"`
	Args any    `json:"args"`
}

type reply struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Success *bool  `json:"success"`
}

func marshalOne(v any) ([][]byte, error) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	return [][]byte{payload}, nil
}

// LoginPayload builds the v5 login with epoch-second timestamp.
func LoginPayload(creds *core.Credentials, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() || creds.Passphrase == "" {
		return nil, core.ErrMissingCredentials
	}
	ts := strconv.FormatInt(now.Unix(), 10)
	return sonic.Marshal(request{Op: "login", Args: []map[string]string{{
		"apiKey":     creds.APIKey,
		"passphrase": creds.Passphrase,
		"timestamp":  ts,
		"sign":       loginSignature(creds.SecretKey, ts),
	}}})
}

// loginErrors are the v5 error codes that answer a failed login.
var loginErrors = map[string]bool{
	"60004": true,
	"60005": true,
	"60006": true,
	"60007": true,
	"60009": true,
	"60024": true,
}

// classify handles v5 text pongs and login replies.
func classify(msg []byte) stream.Control {
	if string(msg) == "pong" {
		return stream.Control{Pong: true}
	}
	var r reply
	if err := sonic.Unmarshal(msg, &r); err != nil {
		return stream.Control{}
	}
	switch {
	case r.Event == "login" && r.Code == "0":
		return stream.Control{Authenticated: true}
	case r.Event == "login", r.Event == "error" && loginErrors[r.Code]:
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{}
}

func v5Rule(url string, args []Arg) (stream.Rule, error) {
	if len(args) == 0 {
		return stream.Rule{}, errors.New("okex: at least one subscription is required")
	}
	return stream.Rule{
		Venue: Name,
		URL:   url,
		Subscribe: func([]byte) ([][]byte, error) {
			return marshalOne(request{Op: "subscribe", Args: args})
		},
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatMessage, Probe: []byte("ping")},
	}, nil
}

// PublicStream returns the v5 rule for public channels. Liveness is probed
// with the text frame "ping".
func PublicStream(args ...Arg) (stream.Rule, error) {
	return v5Rule(PublicStreamURL, args)
}

// PrivateStream returns the v5 rule for private channels such as "orders"
// and "positions", subscribed after a successful login.
func PrivateStream(creds *core.Credentials, args ...Arg) (stream.Rule, error) {
	if creds == nil || !creds.CanSign() || creds.Passphrase == "" {
		return stream.Rule{}, core.ErrMissingCredentials
	}
	rule, err := v5Rule(PrivateStreamURL, args)
	if err != nil {
		return rule, err
	}
	rule.Auth = func() ([]byte, error) { return LoginPayload(creds, time.Now()) }
	rule.AwaitAuth = true
	return rule, nil
}

// LoginPayloadV3 builds the v3 login: [key, passphrase, timestamp, sign]
// with a decimal epoch-second timestamp.
func LoginPayloadV3(creds *core.Credentials, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() || creds.Passphrase == "" {
		return nil, core.ErrMissingCredentials
	}
	ts := sign.UnixSecondsDecimal(now)
	return sonic.Marshal(request{Op: "login", Args: []string{
		creds.APIKey, creds.Passphrase, ts, loginSignature(creds.SecretKey, ts),
	}})
}

func classifyV3(msg []byte) stream.Control {
	var r reply
	if err := sonic.Unmarshal(msg, &r); err != nil {
		return stream.Control{}
	}
	switch {
	case r.Event == "login" && r.Success != nil && *r.Success:
		return stream.Control{Authenticated: true}
	case r.Event == "login", r.Event == "error":
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{}
}

// StreamV3 returns the rule for v3 channels such as "spot/ticker:ETH-USDT".
// Frames are raw-deflate compressed. With credentials the channels are
// subscribed after the login succeeds. Liveness is probed with websocket
// pings.
func StreamV3(creds *core.Credentials, channels ...string) (stream.Rule, error) {
	if len(channels) == 0 {
		return stream.Rule{}, errors.New("okex: at least one channel is required")
	}
	rule := stream.Rule{
		Venue: NameV3,
		URL:   V3StreamURL,
		Subscribe: func([]byte) ([][]byte, error) {
			return marshalOne(request{Op: "subscribe", Args: channels})
		},
		Decode:    stream.Inflate,
		Classify:  classifyV3,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatPing},
	}
	if creds != nil && creds.CanSign() && creds.Passphrase != "" {
		rule.Auth = func() ([]byte, error) { return LoginPayloadV3(creds, time.Now()) }
		rule.AwaitAuth = true
	}
	return rule, nil
}
