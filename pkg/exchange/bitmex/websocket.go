package bitmex

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"venuelink/pkg/core"
	"venuelink/pkg/sign"
	"venuelink/pkg/stream"
)

const (
	StreamURL        = "wss://www.bitmex.com/realtime"
	SandboxStreamURL = "wss://ws.testnet.bitmex.com/realtime"
)

// SignedHeaders returns the handshake headers that authenticate a realtime
// connection: a microsecond nonce and the HMAC of "GET/realtime" + nonce.
func SignedHeaders(creds *core.Credentials, now time.Time) http.Header {
	nonce := strconv.FormatInt(now.UnixMilli()*1000, 10)
	h := make(http.Header)
	h.Set("api-nonce", nonce)
	h.Set("api-key", creds.APIKey)
	h.Set("api-signature", sign.HMACSHA256Hex.SumString(creds.SecretKey, "GET/realtime"+nonce))
	return h
}

// Stream returns the rule for the realtime feed subscribed to topics via the
// URL. With credentials that can sign, the handshake is authenticated and
// private topics such as "order" and "position" are available. Liveness is
// probed with websocket pings.
func Stream(creds *core.Credentials, sandbox bool, topics ...string) (stream.Rule, error) {
	if len(topics) == 0 {
		return stream.Rule{}, errors.New("bitmex: at least one topic is required")
	}
	base := StreamURL
	if sandbox {
		base = SandboxStreamURL
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       base + "?subscribe=" + url.QueryEscape(strings.Join(topics, ",")),
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatPing},
	}
	if creds != nil && creds.CanSign() {
		rule.Header = func() (http.Header, error) {
			return SignedHeaders(creds, time.Now()), nil
		}
	}
	return rule, nil
}
