package phemex

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const (
	StreamURL        = "wss://phemex.com/ws"
	SandboxStreamURL = "wss://testnet.phemex.com/ws"
)

const (
	pingID = 0
	authID = 1000
)

// Subscription is one JSON-RPC subscribe call, e.g.
// {Method: "orderbook.subscribe", Params: []any{"BTCUSD"}} or
// {Method: "aop.subscribe"} for account, order and position updates.
type Subscription struct {
	Method string
	Params []any
}

type rpcRequest struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcReply struct {
	ID     *int `json:"id"`
	Result any  `json:"result"`
	Error  any  `json:"error"`
}

var pingProbe, _ = sonic.Marshal(rpcRequest{ID: pingID, Method: "server.ping", Params: []any{}})

// AuthPayload builds user.auth with the hex HMAC of key + expiry.
func AuthPayload(creds *core.Credentials, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	expires := now.Add(expiry).Unix()
	signature := sign.HMACSHA256Hex.SumString(creds.SecretKey, creds.APIKey+sign.FormatValue(expires))
	return sonic.Marshal(rpcRequest{
		ID:     authID,
		Method: "user.auth",
		Params: []any{"API", creds.APIKey, signature, expires},
	})
}

func classify(msg []byte) stream.Control {
	var r rpcReply
	if err := sonic.Unmarshal(msg, &r); err != nil || r.ID == nil {
		return stream.Control{}
	}
	switch *r.ID {
	case pingID:
		if r.Result == "pong" {
			return stream.Control{Pong: true}
		}
	case authID:
		if res, ok := r.Result.(map[string]any); ok && res["status"] == "success" {
			return stream.Control{Authenticated: true}
		}
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{}
}

func subscribe(subs []Subscription) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		out := make([][]byte, 0, len(subs))
		for i, sub := range subs {
			params := sub.Params
			if params == nil {
				params = []any{}
			}
			payload, err := sonic.Marshal(rpcRequest{ID: authID + 1 + i, Method: sub.Method, Params: params})
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	}
}

// Stream returns the rule for subs. With credentials the subscriptions wait
// for a successful user.auth reply. Liveness is probed with server.ping.
func Stream(creds *core.Credentials, sandbox bool, subs ...Subscription) (stream.Rule, error) {
	if len(subs) == 0 {
		return stream.Rule{}, errors.New("phemex: at least one subscription is required")
	}
	url := StreamURL
	if sandbox {
		url = SandboxStreamURL
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       url,
		Subscribe: subscribe(subs),
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatMessage, Probe: pingProbe},
	}
	if creds != nil && creds.CanSign() {
		rule.Auth = func() ([]byte, error) { return AuthPayload(creds, time.Now()) }
		rule.AwaitAuth = true
	}
	return rule, nil
}
