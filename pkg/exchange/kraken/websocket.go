package kraken

import (
	"errors"

	"github.com/bytedance/sonic"

	"venuelink/pkg/core"
	"venuelink/pkg/stream"
)

const (
	StreamURL        = "wss://futures.kraken.com/ws/v1"
	SandboxStreamURL = "wss://demo-futures.kraken.com/ws/v1"
)

// Feed is one subscription. Public feeds ("book", "ticker", "trade") take
// product ids; private feeds ("open_orders", "fills", "balances") do not.
type Feed struct {
	Name     string
	Products []string
}

type event struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type subscribeRequest struct {
	Event             string   `json:"event"`
	Feed              string   `json:"feed"`
	ProductIDs        []string `json:"product_ids,omitempty"`
	APIKey            string   `json:"api_key,omitempty"`
	OriginalChallenge string   `json:"original_challenge,omitempty"`
	SignedChallenge   string   `json:"signed_challenge,omitempty"`
}

func classify(msg []byte) stream.Control {
	var e event
	if err := sonic.Unmarshal(msg, &e); err != nil {
		return stream.Control{}
	}
	switch {
	case e.Event == "challenge" && e.Message != "":
		return stream.Control{Authenticated: true}
	case e.Event == "error", e.Event == "alert":
		return stream.Control{AuthRejected: true}
	}
	return stream.Control{}
}

// SignChallenge answers a challenge string: HMAC-SHA512 over its SHA-256,
// keyed by the base64-decoded secret.
func SignChallenge(secret, challenge string) (string, error) {
	return MAC.Sum(secret, []byte(challenge))
}

func subscribe(feeds []Feed, creds *core.Credentials) func([]byte) ([][]byte, error) {
	return func(ack []byte) ([][]byte, error) {
		var challenge, signed string
		if creds != nil {
			var e event
			if err := sonic.Unmarshal(ack, &e); err != nil {
				return nil, err
			}
			challenge = e.Message
			var err error
			if signed, err = SignChallenge(creds.SecretKey, challenge); err != nil {
				return nil, err
			}
		}
		out := make([][]byte, 0, len(feeds))
		for _, f := range feeds {
			req := subscribeRequest{Event: "subscribe", Feed: f.Name, ProductIDs: f.Products}
			if creds != nil {
				req.APIKey = creds.APIKey
				req.OriginalChallenge = challenge
				req.SignedChallenge = signed
			}
			payload, err := sonic.Marshal(req)
			if err != nil {
				return nil, err
			}
			out = append(out, payload)
		}
		return out, nil
	}
}

// Stream returns the rule for feeds. With credentials the session asks
// for a challenge first and every subscription carries the signed answer.
// Liveness is probed with websocket pings.
func Stream(creds *core.Credentials, sandbox bool, feeds ...Feed) (stream.Rule, error) {
	if len(feeds) == 0 {
		return stream.Rule{}, errors.New("kraken: at least one feed is required")
	}
	url := StreamURL
	if sandbox {
		url = SandboxStreamURL
	}
	rule := stream.Rule{
		Venue:     Name,
		URL:       url,
		Classify:  classify,
		Heartbeat: stream.Heartbeat{Mode: stream.HeartbeatPing},
	}
	if creds == nil || !creds.CanSign() {
		rule.Subscribe = subscribe(feeds, nil)
		return rule, nil
	}
	rule.Auth = func() ([]byte, error) {
		return sonic.Marshal(map[string]string{"event": "challenge", "api_key": creds.APIKey})
	}
	rule.AwaitAuth = true
	rule.Subscribe = subscribe(feeds, creds)
	return rule, nil
}
