// Package deribit implements the Deribit v2 signing rule and JSON-RPC stream.
package deribit

import (
	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "deribit"

const (
	ProductionURL = "https://www.deribit.com"
	SandboxURL    = "https://test.deribit.com"
)

const basePath = "/api/v2"

// Canonical is "ts\nnonce\nMETHOD\npath?query\nbody\n".
func Canonical(m sign.Material) string {
	return m.Timestamp + "\n" + m.Nonce + "\n" + m.Method + "\n" +
		m.Path + sign.QuerySuffix(m.Query) + "\n" + m.Body + "\n"
}

// NewScheme signs with a millisecond timestamp and a random nonce and sends
// the result in a single Authorization header.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:      Name,
		Ordering:  sign.InsertionOrder,
		Encoding:  sign.Escaped,
		Stamp:     sign.UnixMillis,
		Nonce:     sign.UUIDNonce{},
		Canonical: Canonical,
		MAC:       sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("Authorization", "deri-hmac-sha256 id="+m.Key+
				",ts="+m.Timestamp+",nonce="+m.Nonce+",sig="+signature)
		},
	}
}

const (
	RouteAuth                = "auth"
	RouteGetTime             = "getTime"
	RouteTest                = "test"
	RouteInstruments         = "instruments"
	RouteCurrencies          = "currencies"
	RouteOrderBook           = "orderBook"
	RouteTicker              = "ticker"
	RouteIndexPrice          = "indexPrice"
	RouteLastTrades          = "lastTrades"
	RouteBookSummary         = "bookSummary"
	RouteAccountSummary      = "accountSummary"
	RoutePositions           = "positions"
	RouteBuy                 = "buy"
	RouteSell                = "sell"
	RouteEdit                = "edit"
	RouteCancel              = "cancel"
	RouteCancelAll           = "cancelAll"
	RouteOpenOrders          = "openOrders"
	RouteOrderState          = "orderState"
	RouteUserTrades          = "userTrades"
	RouteEnableCancelOnDisc  = "enableCancelOnDisconnect"
	RouteDisableCancelOnDisc = "disableCancelOnDisconnect"
	RouteLogout              = "logout"
)

func get(name, method string, auth core.AuthClass) core.Route {
	return core.Get(name, basePath+"/"+method, auth)
}

// Routes are JSON-RPC methods over HTTP GET.
var Routes = core.NewRoutes(
	get(RouteAuth, "public/auth", core.AuthPublic),
	get(RouteGetTime, "public/get_time", core.AuthPublic),
	get(RouteTest, "public/test", core.AuthPublic),
	get(RouteInstruments, "public/get_instruments", core.AuthPublic),
	get(RouteCurrencies, "public/get_currencies", core.AuthPublic),
	get(RouteOrderBook, "public/get_order_book", core.AuthPublic),
	get(RouteTicker, "public/ticker", core.AuthPublic),
	get(RouteIndexPrice, "public/get_index_price", core.AuthPublic),
	get(RouteLastTrades, "public/get_last_trades_by_instrument", core.AuthPublic),
	get(RouteBookSummary, "public/get_book_summary_by_currency", core.AuthPublic),
	get(RouteAccountSummary, "private/get_account_summary", core.AuthPrivate),
	get(RoutePositions, "private/get_positions", core.AuthPrivate),
	get(RouteBuy, "private/buy", core.AuthPrivate),
	get(RouteSell, "private/sell", core.AuthPrivate),
	get(RouteEdit, "private/edit", core.AuthPrivate),
	get(RouteCancel, "private/cancel", core.AuthPrivate),
	get(RouteCancelAll, "private/cancel_all", core.AuthPrivate),
	get(RouteOpenOrders, "private/get_open_orders_by_currency", core.AuthPrivate),
	get(RouteOrderState, "private/get_order_state", core.AuthPrivate),
	get(RouteUserTrades, "private/get_user_trades_by_currency", core.AuthPrivate),
	get(RouteEnableCancelOnDisc, "private/enable_cancel_on_disconnect", core.AuthPrivate),
	get(RouteDisableCancelOnDisc, "private/disable_cancel_on_disconnect", core.AuthPrivate),
	get(RouteLogout, "private/logout", core.AuthPrivate),
)

// Detector flags JSON-RPC error replies delivered with status 200.
var Detector = rest.AnyOf(rest.DefaultDetector, rest.FieldDetector("error"))

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeInverseFutures}:                ProductionURL,
			{Market: core.MarketTypeOptions}:                       ProductionURL,
			{Market: core.MarketTypeInverseFutures, Sandbox: true}: SandboxURL,
			{Market: core.MarketTypeOptions, Sandbox: true}:        SandboxURL,
		},
		Routes:   Routes,
		Detector: Detector,
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
