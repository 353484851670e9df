package bybit

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
	PublicStreamURL         = "wss://stream.bybit.com/v5/public/"
	PublicSandboxStreamURL  = "wss://stream-testnet.bybit.com/v5/public/"
	PrivateStreamURL        = "wss://stream.bybit.com/v5/private"
	PrivateSandboxStreamURL = "wss://stream-testnet.bybit.com/v5/private"
)

// authTTL is how long a stream auth signature stays valid.
const authTTL = 10 * time.Second

var pingProbe = []byte(`{"op":"ping"}`)

// Topic builds a topic like "publicTrade.BTCUSDT" from a channel and a symbol.
func Topic(channel, symbol string) string {
	return channel + "." + formatSymbol(symbol)
}

type wsRequest struct {
	Op   string `json:"op"`
	Args []any  `json:"args"`
}

type wsReply struct {
	Op      string `json:"op"`
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
}

func classify(msg []byte) stream.Control {
	var r wsReply
	if err := sonic.Unmarshal(msg, &r); err != nil {
		return stream.Control{}
	}
	switch {
	case r.Op == "pong", r.Op == "ping" && r.RetMsg == "pong":
		return stream.Control{Pong: true}
	case r.Op == "auth" && r.Success != nil:
		return stream.Control{Authenticated: *r.Success, AuthRejected: !*r.Success}
	}
	return stream.Control{}
}

func subscribe(topics []string) func([]byte) ([][]byte, error) {
	args := make([]any, len(topics))
	for i, t := range topics {
		args[i] = t
	}
	return func([]byte) ([][]byte, error) {
		payload, err := sonic.Marshal(wsRequest{Op: "subscribe", Args: args})
		if err != nil {
			return nil, err
		}
		return [][]byte{payload}, nil
	}
}

// PublicStream returns the rule for public topics of a category
// ("spot", "linear", "inverse", "option").
func PublicStream(category string, sandbox bool, topics ...string) (stream.Rule, error) {
	if len(topics) == 0 {
		return stream.Rule{}, errors.New("bybit: at least one topic is required")
	}
	url := PublicStreamURL
	if sandbox {
		url = PublicSandboxStreamURL
	}
	return stream.Rule{
		Venue:     Name,
		URL:       url + category,
		Subscribe: subscribe(topics),
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatMessage, Probe: pingProbe},
	}, nil
}

// AuthPayload builds the stream login: the key, an expiry in milliseconds
// and the hex HMAC of "GET/realtime" + expiry.
func AuthPayload(creds *core.Credentials, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	expires := strconv.FormatInt(now.Add(authTTL).UnixMilli(), 10)
	signature := sign.HMACSHA256Hex.SumString(creds.SecretKey, "GET/realtime"+expires)
	return sonic.Marshal(wsRequest{Op: "auth", Args: []any{creds.APIKey, expires, signature}})
}

// PrivateStream returns the rule for private topics such as "order" and
// "position". The subscription waits for a successful auth reply.
func PrivateStream(creds *core.Credentials, sandbox bool, topics ...string) (stream.Rule, error) {
	if creds == nil || !creds.CanSign() {
		return stream.Rule{}, core.ErrMissingCredentials
	}
	if len(topics) == 0 {
		return stream.Rule{}, errors.New("bybit: at least one topic is required")
	}
	url := PrivateStreamURL
	if sandbox {
		url = PrivateSandboxStreamURL
	}
	return stream.Rule{
		Venue:     Name,
		URL:       url,
		Auth:      func() ([]byte, error) { return AuthPayload(creds, time.Now()) },
		AwaitAuth: true,
		Subscribe: subscribe(topics),
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatMessage, Probe: pingProbe},
	}, nil
}
