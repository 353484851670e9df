// Package bitmex implements the BitMEX signing rule and realtime stream.
package bitmex

import (
	"time"

	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "bitmex"

const (
	ProductionURL = "https://www.bitmex.com"
	SandboxURL    = "https://testnet.bitmex.com"
)

// expiry is how far ahead api-expires is set.
const expiry = 60 * time.Second

// NewScheme signs METHOD + path (+ "?query") + expires + body with
// HMAC-SHA256 hex. An empty query adds no "?".
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:     Name,
		Ordering: sign.InsertionOrder,
		Encoding: sign.Escaped,
		Stamp:    sign.ExpiresIn(expiry),
		Canonical: func(m sign.Material) string {
			return m.Method + m.Path + sign.QuerySuffix(m.Query) + m.Timestamp + m.Body
		},
		MAC: sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("api-expires", m.Timestamp)
			out.SetHeader("api-key", m.Key)
			out.SetHeader("api-signature", signature)
		},
	}
}

const (
	RouteAnnouncement  = "announcement"
	RouteInstrument    = "instrument"
	RouteActive        = "instrumentActive"
	RouteOrderBook     = "orderBook"
	RouteTrade         = "trade"
	RouteQuote         = "quote"
	RouteFunding       = "funding"
	RouteOrders        = "orders"
	RouteNewOrder      = "newOrder"
	RouteAmendOrder    = "amendOrder"
	RouteCancelOrder   = "cancelOrder"
	RouteCancelAll     = "cancelAll"
	RouteCancelAfter   = "cancelAllAfter"
	RouteClosePosition = "closePosition"
	RoutePosition      = "position"
	RouteLeverage      = "leverage"
	RouteExecution     = "execution"
	RouteTradeHistory  = "tradeHistory"
	RouteWallet        = "wallet"
	RouteMargin        = "margin"
	RouteAPIKeys       = "apiKeys"
)

var Routes = core.NewRoutes(
	core.Get(RouteAnnouncement, "/api/v1/announcement", core.AuthPublic),
	core.Get(RouteInstrument, "/api/v1/instrument", core.AuthPublic),
	core.Get(RouteActive, "/api/v1/instrument/active", core.AuthPublic),
	core.Get(RouteOrderBook, "/api/v1/orderBook/L2", core.AuthPublic),
	core.Get(RouteTrade, "/api/v1/trade", core.AuthPublic),
	core.Get(RouteQuote, "/api/v1/quote", core.AuthPublic),
	core.Get(RouteFunding, "/api/v1/funding", core.AuthPublic),
	core.Get(RouteOrders, "/api/v1/order", core.AuthPrivate),
	core.Post(RouteNewOrder, "/api/v1/order", core.AuthPrivate),
	core.Put(RouteAmendOrder, "/api/v1/order", core.AuthPrivate),
	core.Delete(RouteCancelOrder, "/api/v1/order", core.AuthPrivate),
	core.Delete(RouteCancelAll, "/api/v1/order/all", core.AuthPrivate),
	core.Post(RouteCancelAfter, "/api/v1/order/cancelAllAfter", core.AuthPrivate),
	core.Post(RouteClosePosition, "/api/v1/order/closePosition", core.AuthPrivate),
	core.Get(RoutePosition, "/api/v1/position", core.AuthPrivate),
	core.Post(RouteLeverage, "/api/v1/position/leverage", core.AuthPrivate),
	core.Get(RouteExecution, "/api/v1/execution", core.AuthPrivate),
	core.Get(RouteTradeHistory, "/api/v1/execution/tradeHistory", core.AuthPrivate),
	core.Get(RouteWallet, "/api/v1/user/wallet", core.AuthPrivate),
	core.Get(RouteMargin, "/api/v1/user/margin", core.AuthPrivate),
	core.Get(RouteAPIKeys, "/api/v1/apiKey", core.AuthPrivate),
)

func Descriptor() *exchange.Descriptor {
	urls := make(map[exchange.Endpoint]string)
	for _, market := range []core.MarketType{core.MarketTypeInverseFutures, core.MarketTypeLinearFutures} {
		urls[exchange.Endpoint{Market: market}] = ProductionURL
		urls[exchange.Endpoint{Market: market, Sandbox: true}] = SandboxURL
	}
	return &exchange.Descriptor{
		Name:     Name,
		Scheme:   NewScheme(),
		BaseURLs: urls,
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, rest.FieldDetector("error")),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
