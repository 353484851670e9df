package ftx

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const StreamURL = "wss://ftx.com/ws/"

var pingProbe = []byte(`{"op":"ping"}`)

// Subscription is one channel, with a market for market channels
// ("orderbook", "trades", "ticker"). Private channels ("fills", "orders")
// have no market.
type Subscription struct {
	Channel string `json:"channel"`
	Market  string `json:"market,omitempty"`
}

type subscribeRequest struct {
	Op string `json:"op"`
	Subscription
}

type loginArgs struct {
	Key        string `json:"key"`
	Sign       string `json:"sign"`
	Time       int64  `json:"time"`
	Subaccount string `json:"subaccount,omitempty"`
}

type reply struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// LoginPayload signs timestamp + "websocket_login".
func LoginPayload(creds *core.Credentials, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	ts := now.UnixMilli()
	return sonic.Marshal(struct {
		Op   string    `json:"op"`
		Args loginArgs `json:"args"`
	}{
		Op: "login",
		Args: loginArgs{
			Key:        creds.APIKey,
			Sign:       sign.HMACSHA256Hex.SumString(creds.SecretKey, strconv.FormatInt(ts, 10)+"websocket_login"),
			Time:       ts,
			Subaccount: creds.Subaccount,
		},
	})
}

func classify(msg []byte) stream.Control {
	var r reply
	if err := sonic.Unmarshal(msg, &r); err != nil {
		return stream.Control{}
	}
	switch {
	case r.Type == "pong":
		return stream.Control{Pong: true}
	case r.Type == "error" && strings.Contains(strings.ToLower(r.Msg), "login"):
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{}
}

func subscribe(subs []Subscription) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		out := make([][]byte, 0, len(subs))
		for _, sub := range subs {
			payload, err := sonic.Marshal(subscribeRequest{Op: "subscribe", Subscription: sub})
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	}
}

// Stream returns the rule for the given subscriptions. With credentials the
// login is sent before the subscriptions, which private channels require.
// FTX acknowledges nothing on success, so the subscription does not wait.
// Liveness is probed with {"op":"ping"} every heartbeat interval.
func Stream(creds *core.Credentials, subs ...Subscription) (stream.Rule, error) {
	if len(subs) == 0 {
		return stream.Rule{}, errors.New("ftx: at least one subscription is required")
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       StreamURL,
		Subscribe: subscribe(subs),
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatMessage, Probe: pingProbe},
	}
	if creds != nil && creds.CanSign() {
		rule.Auth = func() ([]byte, error) { return LoginPayload(creds, time.Now()) }
	}
	return rule, nil
}
