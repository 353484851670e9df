package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"venuelink/pkg/core"
	"venuelink/pkg/rest"
	"venuelink/pkg/stream"
)

const (
	SpotStreamURL               = "wss://stream.binance.com:9443"
	SpotSandboxStreamURL        = "wss://testnet.binance.vision"
	FuturesStreamURL            = "wss://fstream.binance.com"
	FuturesSandboxStreamURL     = "wss://stream.binancefuture.com"
	CoinFuturesStreamURL        = "wss://dstream.binance.com"
	CoinFuturesSandboxStreamURL = "wss://dstream.binancefuture.com"
)

func streamBase(market core.MarketType, sandbox bool) (string, error) {
	switch market {
	case core.MarketTypeSpot:
		if sandbox {
			return SpotSandboxStreamURL, nil
		}
		return SpotStreamURL, nil
	case core.MarketTypeLinearFutures:
		if sandbox {
			return FuturesSandboxStreamURL, nil
		}
		return FuturesStreamURL, nil
	case core.MarketTypeInverseFutures:
		if sandbox {
			return CoinFuturesSandboxStreamURL, nil
		}
		return CoinFuturesStreamURL, nil
	}
	return "", fmt.Errorf("binance: no stream endpoint for %s market", market)
}

// StreamName converts a symbol like "BTC/USDT" and a channel into a stream name.
func StreamName(symbol, channel string) string {
	return strings.ToLower(strings.ReplaceAll(symbol, "/", "")) + "@" + channel
}

// MarketStream returns the rule for public market streams. The server pings
// and the transport answers, so no heartbeat is configured.
func MarketStream(market core.MarketType, sandbox bool, streams ...string) (stream.Rule, error) {
	if len(streams) == 0 {
		return stream.Rule{}, errors.New("binance: at least one stream name is required")
	}
	base, err := streamBase(market, sandbox)
	if err != nil {
		return stream.Rule{}, err
	}
	url := base + "/ws/" + streams[0]
	if len(streams) > 1 {
		url = base + "/stream?streams=" + strings.Join(streams, "/")
	}
	return stream.Rule{Venue: Name, URL: url}, nil
}

// ListenKeys issues user data stream keys over REST.
type ListenKeys struct {
	client *rest.Client
	create core.Route
}

var _ stream.TokenSource = (*ListenKeys)(nil)

func NewListenKeys(client *rest.Client, market core.MarketType) (*ListenKeys, error) {
	route, err := Descriptor().RoutesFor(market).Lookup(RouteListenKeyCreate)
	if err != nil {
		return nil, err
	}
	return &ListenKeys{client: client, create: route}, nil
}

func (l *ListenKeys) Issue(ctx context.Context) (string, error) {
	res, err := l.client.Do(ctx, l.create, nil)
	if err != nil {
		return "", err
	}
	var body struct {
		ListenKey string `json:"listenKey"`
	}
	if err := res.Decode(&body); err != nil {
		return "", fmt.Errorf("decode listen key: %w", err)
	}
	if body.ListenKey == "" {
		return "", errors.New("listen key missing from response")
	}
	return body.ListenKey, nil
}

// Renew requests the key again, which extends an active key's validity.
// A different key means the stream's key expired.
func (l *ListenKeys) Renew(ctx context.Context, token string) error {
	key, err := l.Issue(ctx)
	if err != nil {
		return err
	}
	if key != token {
		return errors.New("listen key expired and was replaced")
	}
	return nil
}

// UserStream returns the rule for the account's user data stream. Each
// connection issues a listen key through client and renews it while open.
func UserStream(client *rest.Client, market core.MarketType, sandbox bool) (stream.Rule, error) {
	keys, err := NewListenKeys(client, market)
	if err != nil {
		return stream.Rule{}, err
	}
	base, err := streamBase(market, sandbox)
	if err != nil {
		return stream.Rule{}, err
	}
	return stream.Rule{
		Venue: Name,
		URL:   base + "/ws",
		Token: keys,
		Endpoint: func(url, token string) string {
			return url + "/" + token
		},
	}, nil
}
