// Package bitflyer implements the bitFlyer Lightning signing rule and the
// JSON-RPC realtime stream.
package bitflyer

import (
	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const (
	Name          = "bitflyer"
	ProductionURL = "https://api.bitflyer.com"
)

// NewScheme signs timestamp + METHOD + path (+ "?query") + JSON body and
// sends the digest in ACCESS-* headers. POST parameters travel as JSON.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:       Name,
		Ordering:   sign.InsertionOrder,
		Encoding:   sign.Escaped,
		BodyParams: true,
		Stamp:      sign.UnixMillis,
		Canonical:  sign.StampMethodPathBody,
		MAC:        sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("ACCESS-KEY", m.Key)
			out.SetHeader("ACCESS-TIMESTAMP", m.Timestamp)
			out.SetHeader("ACCESS-SIGN", signature)
		},
	}
}

const (
	RouteMarkets          = "markets"
	RouteBoard            = "board"
	RouteTicker           = "ticker"
	RouteExecutions       = "executions"
	RouteHealth           = "health"
	RoutePermissions      = "permissions"
	RouteBalance          = "balance"
	RouteCollateral       = "collateral"
	RouteSendChildOrder   = "sendChildOrder"
	RouteCancelChildOrder = "cancelChildOrder"
	RouteCancelAll        = "cancelAllChildOrders"
	RouteChildOrders      = "childOrders"
	RouteMyExecutions     = "myExecutions"
	RoutePositions        = "positions"
	RouteCommission       = "tradingCommission"
)

var Routes = core.NewRoutes(
	core.Get(RouteMarkets, "/v1/getmarkets", core.AuthPublic),
	core.Get(RouteBoard, "/v1/getboard", core.AuthPublic),
	core.Get(RouteTicker, "/v1/getticker", core.AuthPublic),
	core.Get(RouteExecutions, "/v1/getexecutions", core.AuthPublic),
	core.Get(RouteHealth, "/v1/gethealth", core.AuthPublic),
	core.Get(RoutePermissions, "/v1/me/getpermissions", core.AuthPrivate),
	core.Get(RouteBalance, "/v1/me/getbalance", core.AuthPrivate),
	core.Get(RouteCollateral, "/v1/me/getcollateral", core.AuthPrivate),
	core.Post(RouteSendChildOrder, "/v1/me/sendchildorder", core.AuthPrivate),
	core.Post(RouteCancelChildOrder, "/v1/me/cancelchildorder", core.AuthPrivate),
	core.Post(RouteCancelAll, "/v1/me/cancelallchildorders", core.AuthPrivate),
	core.Get(RouteChildOrders, "/v1/me/getchildorders", core.AuthPrivate),
	core.Get(RouteMyExecutions, "/v1/me/getexecutions", core.AuthPrivate),
	core.Get(RoutePositions, "/v1/me/getpositions", core.AuthPrivate),
	core.Get(RouteCommission, "/v1/me/gettradingcommission", core.AuthPrivate),
)

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeSpot}:          ProductionURL,
			{Market: core.MarketTypeLinearFutures}: ProductionURL,
		},
		Routes: Routes,
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
