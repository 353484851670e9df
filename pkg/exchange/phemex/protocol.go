// Package phemex implements the Phemex signing rule and JSON-RPC stream.
package phemex

import (
	"time"

	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "phemex"

const (
	ProductionURL = "https://api.phemex.com"
	SandboxURL    = "https://testnet-api.phemex.com"
)

const expiry = 60 * time.Second

// NewScheme signs path + raw query + expiry + body with HMAC-SHA256 hex.
// The query is signed and sent without percent-encoding.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:     Name,
		Ordering: sign.InsertionOrder,
		Encoding: sign.Raw,
		Stamp:    sign.ExpiresIn(expiry),
		Canonical: func(m sign.Material) string {
			return m.Path + m.Query + m.Timestamp + m.Body
		},
		MAC: sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("x-phemex-access-token", m.Key)
			out.SetHeader("x-phemex-request-expiry", m.Timestamp)
			out.SetHeader("x-phemex-request-signature", signature)
		},
	}
}

const (
	RouteProducts         = "products"
	RouteOrderBook        = "orderBook"
	RouteTrades           = "trades"
	RouteTicker24h        = "ticker24h"
	RouteAccountPositions = "accountPositions"
	RouteCreateOrder      = "createOrder"
	RouteReplaceOrder     = "replaceOrder"
	RouteCancelOrder      = "cancelOrder"
	RouteCancelOrders     = "cancelOrders"
	RouteCancelAll        = "cancelAll"
	RouteActiveOrders     = "activeOrders"
	RouteClosedOrders     = "closedOrders"
	RouteTradeHistory     = "tradeHistory"
	RouteLeverage         = "leverage"
)

var Routes = core.NewRoutes(
	core.Get(RouteProducts, "/public/products", core.AuthPublic),
	core.Get(RouteOrderBook, "/md/orderbook", core.AuthPublic),
	core.Get(RouteTrades, "/md/trade", core.AuthPublic),
	core.Get(RouteTicker24h, "/md/ticker/24hr", core.AuthPublic),
	core.Get(RouteAccountPositions, "/accounts/accountPositions", core.AuthPrivate),
	core.Put(RouteCreateOrder, "/orders/create", core.AuthPrivate),
	core.Put(RouteReplaceOrder, "/orders/replace", core.AuthPrivate),
	core.Delete(RouteCancelOrder, "/orders/cancel", core.AuthPrivate),
	core.Delete(RouteCancelOrders, "/orders", core.AuthPrivate),
	core.Delete(RouteCancelAll, "/orders/all", core.AuthPrivate),
	core.Get(RouteActiveOrders, "/orders/activeList", core.AuthPrivate),
	core.Get(RouteClosedOrders, "/exchange/order/list", core.AuthPrivate),
	core.Get(RouteTradeHistory, "/exchange/order/trade", core.AuthPrivate),
	core.Put(RouteLeverage, "/positions/leverage", core.AuthPrivate),
)

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeLinearFutures}:                 ProductionURL,
			{Market: core.MarketTypeInverseFutures}:                ProductionURL,
			{Market: core.MarketTypeLinearFutures, Sandbox: true}:  SandboxURL,
			{Market: core.MarketTypeInverseFutures, Sandbox: true}: SandboxURL,
		},
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, rest.FieldDetector("code")),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
