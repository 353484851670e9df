package bitflyer

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

const StreamURL = "wss://ws.lightstream.bitflyer.com/json-rpc"

const authID = 1

type rpcRequest struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id,omitempty"`
}

type rpcReply struct {
	ID     int       `json:"id"`
	Result *bool     `json:"result"`
	Error  *rpcError `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AuthPayload builds the JSON-RPC auth request: HMAC-SHA256 hex of the
// millisecond timestamp followed by a random nonce.
func AuthPayload(creds *core.Credentials, now time.Time, nonce string) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	ts := now.UnixMilli()
	return sonic.Marshal(rpcRequest{
		Version: "2.0",
		Method:  "auth",
		Params: map[string]any{
			"api_key":   creds.APIKey,
			"timestamp": ts,
			"nonce":     nonce,
			"signature": sign.HMACSHA256Hex.SumString(creds.SecretKey, strconv.FormatInt(ts, 10)+nonce),
		},
		ID: authID,
	})
}

func classify(msg []byte) stream.Control {
	var r rpcReply
	if err := sonic.Unmarshal(msg, &r); err != nil || r.ID != authID {
		return stream.Control{}
	}
	if r.Error != nil || (r.Result != nil && !*r.Result) {
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{Authenticated: r.Result != nil}
}

// subscribe sends one request per channel; the API takes a single
// channel per call.
func subscribe(channels []string) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		out := make([][]byte, 0, len(channels))
		for _, ch := range channels {
			payload, err := sonic.Marshal(rpcRequest{
				Version: "2.0",
				Method:  "subscribe",
				Params:  map[string]string{"channel": ch},
			})
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	}
}

// Stream returns the rule for realtime channels such as
// "lightning_ticker_BTC_JPY". With credentials the connection
// authenticates first, which private channels ("child_order_events",
// "parent_order_events") require.
func Stream(creds *core.Credentials, channels ...string) (stream.Rule, error) {
	if len(channels) == 0 {
		return stream.Rule{}, errors.New("bitflyer: at least one channel is required")
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       StreamURL,
		Subscribe: subscribe(channels),
		Classify:  classify,
	}
	if creds != nil && creds.CanSign() {
		rule.Auth = func() ([]byte, error) { return AuthPayload(creds, time.Now(), uuid.NewString()) }
		rule.AwaitAuth = true
	}
	return rule, nil
}
