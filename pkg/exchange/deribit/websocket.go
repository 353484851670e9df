package deribit

import (
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const (
	StreamURL        = "wss://www.deribit.com/ws/api/v2"
	SandboxStreamURL = "wss://test.deribit.com/ws/api/v2"
)

const (
	authID      = 1
	subscribeID = 2
	testID      = 3
)

type rpcRequest struct {
	Version string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcMessage struct {
	ID     int    `json:"id"`
	Method string `json:"method"`
	Params struct {
		Type string `json:"type"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// AuthPayload builds a public/auth request with the client_signature grant:
// the hex HMAC of "ts\nnonce\n" followed by empty data.
func AuthPayload(creds *core.Credentials, now time.Time, nonce string) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	ts := now.UnixMilli()
	digest := strconv.FormatInt(ts, 10) + "\n" + nonce + "\n"
	return sonic.Marshal(rpcRequest{
		Version: "2.0",
		ID:      authID,
		Method:  "public/auth",
		Params: map[string]any{
			"grant_type": "client_signature",
			"client_id":  creds.APIKey,
			"timestamp":  ts,
			"signature":  sign.HMACSHA256Hex.SumString(creds.SecretKey, digest),
			"nonce":      nonce,
			"data":       "",
		},
	})
}

var testRequest = mustMarshal(rpcRequest{Version: "2.0", ID: testID, Method: "public/test", Params: struct{}{}})

func mustMarshal(v any) []byte {
	b, err := sonic.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// classify answers server heartbeat test requests and reports a rejected
// auth reply.
func classify(msg []byte) stream.Control {
	var m rpcMessage
	if err := sonic.Unmarshal(msg, &m); err != nil {
		return stream.Control{}
	}
	switch {
	case m.Method == "heartbeat" && m.Params.Type == "test_request":
		return stream.Control{Replies: [][]byte{testRequest}}
	case m.ID == authID && m.Error != nil:
		return stream.Control{AuthRejected: true}
	case m.ID == authID:
		return stream.Control{Authenticated: true}
	}
	return stream.Control{}
}

func subscribe(method string, channels []string) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		payload, err := sonic.Marshal(rpcRequest{
			Version: "2.0",
			ID:      subscribeID,
			Method:  method,
			Params:  map[string][]string{"channels": channels},
		})
		if err != nil {
			return nil, err
		}
		return [][]byte{payload}, nil
	}
}

// Stream returns the rule for channels such as "book.BTC-PERPETUAL.100ms".
// With credentials the auth request is sent right before the subscription,
// which then goes to private/subscribe so "user.*" channels are allowed.
// Liveness is probed with websocket pings.
func Stream(creds *core.Credentials, sandbox bool, channels ...string) (stream.Rule, error) {
	if len(channels) == 0 {
		return stream.Rule{}, errors.New("deribit: at least one channel is required")
	}
	url := StreamURL
	if sandbox {
		url = SandboxStreamURL
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       url,
		Subscribe: subscribe("public/subscribe", channels),
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatPing},
	}
	if creds != nil && creds.CanSign() {
		rule.Auth = func() ([]byte, error) { return AuthPayload(creds, time.Now(), uuid.NewString()) }
		rule.Subscribe = subscribe("private/subscribe", channels)
	}
	return rule, nil
}
