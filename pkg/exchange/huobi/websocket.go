package huobi

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const (
	MarketStreamURL     = "wss://" + Host + "/ws"
	NotificationURL     = "wss://" + Host + "/notification"
	SwapMarketStreamURL = "wss://" + Host + "/swap-ws"
	SwapNotificationURL = "wss://" + Host + "/swap-notification"
	SwapIndexStreamURL  = "wss://" + Host + "/ws_index"
)

type message struct {
	Ping    any    `json:"ping"`
	Op      string `json:"op"`
	TS      any    `json:"ts"`
	Type    string `json:"type"`
	ErrCode *int   `json:"err-code"`
}

// number reads a JSON number that may also arrive as a decimal string.
func number(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// classify answers both ping styles and reports the auth result.
func classify(msg []byte) stream.Control {
	var m message
	if err := sonic.Unmarshal(msg, &m); err != nil {
		return stream.Control{}
	}
	if n, ok := number(m.Ping); ok {
		reply, _ := sonic.Marshal(map[string]int64{"pong": n})
		return stream.Control{Replies: [][]byte{reply}}
	}
	switch m.Op {
	case "ping":
		ts, _ := number(m.TS)
		reply, _ := sonic.Marshal(struct {
			Op string `json:"op"`
			TS int64  `json:"ts"`
		}{"pong", ts})
		return stream.Control{Replies: [][]byte{reply}}
	case "auth":
		if m.ErrCode != nil && *m.ErrCode != 0 {
			return stream.Control{AuthRejected: true}
		}
		return stream.Control{Authenticated: true}
	}
	return stream.Control{}
}

// AuthPayload builds the op=auth request for a notification endpoint. The
// digest is "GET\nhost\npath\nsorted query" over the auth parameters.
func AuthPayload(creds *core.Credentials, endpoint string, now time.Time) ([]byte, error) {
	if creds == nil || !creds.CanSign() {
		return nil, core.ErrMissingCredentials
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	m := sign.Material{Method: "GET", Host: u.Host, Path: u.Path, Key: creds.APIKey, Timestamp: sign.ISO8601Seconds(now)}
	m.Params = authParams(m).Sorted()
	m.Query = sign.EncodeQuery(m.Params, sign.Escaped)
	signature, err := sign.HMACSHA256Base64.Sum(creds.SecretKey, []byte(sign.MethodHostPathQuery(m)))
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(struct {
		Op               string `json:"op"`
		Type             string `json:"type"`
		AccessKeyID      string `json:"AccessKeyId"`
		SignatureMethod  string `json:"SignatureMethod"`
		SignatureVersion string `json:"SignatureVersion"`
		Timestamp        string `json:"Timestamp"`
		Signature        string `json:"Signature"`
	}{"auth", "api", creds.APIKey, "HmacSHA256", "2", m.Timestamp, signature})
}

func each(topics []string, build func(i int, topic string) any) func([]byte) ([][]byte, error) {
	return func([]byte) ([][]byte, error) {
		out := make([][]byte, 0, len(topics))
		for i, t := range topics {
			payload, err := sonic.Marshal(build(i, t))
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	}
}

// MarketStream returns the rule for public topics such as
// "market.BTC_CQ.depth.step0" on MarketStreamURL, SwapMarketStreamURL or
// SwapIndexStreamURL. The server pings; the session answers.
func MarketStream(endpoint string, topics ...string) (stream.Rule, error) {
	if len(topics) == 0 {
		return stream.Rule{}, errors.New("huobi: at least one topic is required")
	}
	return stream.Rule{
		Venue: Name,
		URL:   endpoint,
		Subscribe: each(topics, func(i int, t string) any {
			return map[string]string{"sub": t, "id": "id" + strconv.Itoa(i+1)}
		}),
		Decode:   stream.Gzip,
		Classify: classify,
	}, nil
}

// NotificationStream returns the rule for private topics such as
// "orders.btc" on NotificationURL or SwapNotificationURL. Topics are
// subscribed once the auth reply reports err-code 0.
func NotificationStream(creds *core.Credentials, endpoint string, topics ...string) (stream.Rule, error) {
	if creds == nil || !creds.CanSign() {
		return stream.Rule{}, core.ErrMissingCredentials
	}
	if len(topics) == 0 {
		return stream.Rule{}, errors.New("huobi: at least one topic is required")
	}
	return stream.Rule{
		Venue:     Name,
		URL:       endpoint,
		Auth:      func() ([]byte, error) { return AuthPayload(creds, endpoint, time.Now()) },
		AwaitAuth: true,
		Subscribe: each(topics, func(i int, t string) any {
			return map[string]string{"op": "sub", "cid": "cid" + strconv.Itoa(i+1), "topic": t}
		}),
		Decode:   stream.Gzip,
		Classify: classify,
	}, nil
}
