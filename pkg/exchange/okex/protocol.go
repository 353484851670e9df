// Package okex implements the OKEx signing rules for the v5 API and the
// legacy v3 API, and their login-gated streams.
package okex

import (
	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const (
	Name   = "okex"
	NameV3 = "okex-v3"
)

const (
	ProductionURL = "https://www.okx.com"
	V3URL         = "https://www.okex.com"
)

// newScheme signs timestamp + METHOD + path (+ "?query") + JSON body with
// base64 HMAC-SHA256. The versions differ in the timestamp format only.
func newScheme(name string, stamp sign.Stamp) *sign.Scheme {
	return &sign.Scheme{
		Name:              name,
		Ordering:          sign.InsertionOrder,
		Encoding:          sign.Escaped,
		BodyParams:        true,
		Stamp:             stamp,
		Canonical:         sign.StampMethodPathBody,
		MAC:               sign.HMACSHA256Base64,
		RequirePassphrase: true,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("OK-ACCESS-KEY", m.Key)
			out.SetHeader("OK-ACCESS-SIGN", signature)
			out.SetHeader("OK-ACCESS-TIMESTAMP", m.Timestamp)
			out.SetHeader("OK-ACCESS-PASSPHRASE", m.Passphrase)
		},
	}
}

// NewScheme is the v5 rule with ISO-8601 millisecond timestamps.
func NewScheme() *sign.Scheme {
	return newScheme(Name, sign.ISO8601Millis)
}

// NewSchemeV3 is the v3 rule with decimal epoch-second timestamps.
func NewSchemeV3() *sign.Scheme {
	return newScheme(NameV3, sign.UnixSecondsDecimal)
}

const (
	RouteInstruments       = "instruments"
	RouteTicker            = "ticker"
	RouteTickers           = "tickers"
	RouteBooks             = "books"
	RouteCandles           = "candles"
	RouteHistoryCandles    = "historyCandles"
	RouteFundingRate       = "fundingRate"
	RouteMarkPrice         = "markPrice"
	RouteServerTime        = "serverTime"
	RouteBalance           = "balance"
	RoutePositions         = "positions"
	RouteSetLeverage       = "setLeverage"
	RouteOrder             = "order"
	RouteBatchOrders       = "batchOrders"
	RouteCancelOrder       = "cancelOrder"
	RouteCancelBatchOrders = "cancelBatchOrders"
	RouteAmendOrder        = "amendOrder"
	RouteAmendBatchOrders  = "amendBatchOrders"
	RouteOrderDetails      = "orderDetails"
	RouteOrdersPending     = "ordersPending"
	RouteOrdersHistory     = "ordersHistory"
	RouteFills             = "fills"
)

var Routes = core.NewRoutes(
	core.Get(RouteInstruments, "/api/v5/public/instruments", core.AuthPublic),
	core.Get(RouteTicker, "/api/v5/market/ticker", core.AuthPublic),
	core.Get(RouteTickers, "/api/v5/market/tickers", core.AuthPublic),
	core.Get(RouteBooks, "/api/v5/market/books", core.AuthPublic),
	core.Get(RouteCandles, "/api/v5/market/candles", core.AuthPublic),
	core.Get(RouteHistoryCandles, "/api/v5/market/history-candles", core.AuthPublic),
	core.Get(RouteFundingRate, "/api/v5/public/funding-rate", core.AuthPublic),
	core.Get(RouteMarkPrice, "/api/v5/public/mark-price", core.AuthPublic),
	core.Get(RouteServerTime, "/api/v5/public/time", core.AuthPublic),
	core.Get(RouteBalance, "/api/v5/account/balance", core.AuthPrivate),
	core.Get(RoutePositions, "/api/v5/account/positions", core.AuthPrivate),
	core.Post(RouteSetLeverage, "/api/v5/account/set-leverage", core.AuthPrivate),
	core.Post(RouteOrder, "/api/v5/trade/order", core.AuthPrivate),
	core.Post(RouteBatchOrders, "/api/v5/trade/batch-orders", core.AuthPrivate),
	core.Post(RouteCancelOrder, "/api/v5/trade/cancel-order", core.AuthPrivate),
	core.Post(RouteCancelBatchOrders, "/api/v5/trade/cancel-batch-orders", core.AuthPrivate),
	core.Post(RouteAmendOrder, "/api/v5/trade/amend-order", core.AuthPrivate),
	core.Post(RouteAmendBatchOrders, "/api/v5/trade/amend-batch-orders", core.AuthPrivate),
	core.Get(RouteOrderDetails, "/api/v5/trade/order", core.AuthPrivate),
	core.Get(RouteOrdersPending, "/api/v5/trade/orders-pending", core.AuthPrivate),
	core.Get(RouteOrdersHistory, "/api/v5/trade/orders-history", core.AuthPrivate),
	core.Get(RouteFills, "/api/v5/trade/fills", core.AuthPrivate),
)

// Detector flags v5 bodies whose "code" is not "0".
func Detector(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	code, ok := obj["code"]
	if !ok {
		return false
	}
	s, _ := code.(string)
	return s != "0"
}

// Descriptor covers every v5 market on one host. There is no sandbox
// endpoint: demo trading shares the host.
func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeSpot}:           ProductionURL,
			{Market: core.MarketTypeLinearFutures}:  ProductionURL,
			{Market: core.MarketTypeInverseFutures}: ProductionURL,
			{Market: core.MarketTypeOptions}:        ProductionURL,
		},
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, Detector),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}

const (
	RouteV3SpotInstruments  = "spotInstruments"
	RouteV3SpotTicker       = "spotTicker"
	RouteV3SpotAccounts     = "spotAccounts"
	RouteV3SpotOrders       = "spotOrders"
	RouteV3SpotPlaceOrder   = "spotPlaceOrder"
	RouteV3SpotPending      = "spotOrdersPending"
	RouteV3SpotFills        = "spotFills"
	RouteV3FuturesAccounts  = "futuresAccounts"
	RouteV3FuturesPosition  = "futuresPosition"
	RouteV3FuturesOrder     = "futuresOrder"
	RouteV3FuturesOrders    = "futuresOrders"
	RouteV3FuturesCancelAll = "futuresCancelAll"
	RouteV3FuturesFills     = "futuresFills"
	RouteV3SwapAccounts     = "swapAccounts"
	RouteV3SwapPosition     = "swapPosition"
	RouteV3SwapOrder        = "swapOrder"
	RouteV3SwapFills        = "swapFills"
	RouteV3Wallet           = "wallet"
	RouteV3Transfer         = "transfer"
	RouteV3Withdrawal       = "withdrawal"
)

var RoutesV3 = core.NewRoutes(
	core.Get(RouteV3SpotInstruments, "/api/spot/v3/instruments", core.AuthPublic),
	core.Get(RouteV3SpotTicker, "/api/spot/v3/instruments/ticker", core.AuthPublic),
	core.Get(RouteV3SpotAccounts, "/api/spot/v3/accounts", core.AuthPrivate),
	core.Get(RouteV3SpotOrders, "/api/spot/v3/orders", core.AuthPrivate),
	core.Post(RouteV3SpotPlaceOrder, "/api/spot/v3/orders", core.AuthPrivate),
	core.Get(RouteV3SpotPending, "/api/spot/v3/orders_pending", core.AuthPrivate),
	core.Get(RouteV3SpotFills, "/api/spot/v3/fills", core.AuthPrivate),
	core.Get(RouteV3FuturesAccounts, "/api/futures/v3/accounts", core.AuthPrivate),
	core.Get(RouteV3FuturesPosition, "/api/futures/v3/position", core.AuthPrivate),
	core.Post(RouteV3FuturesOrder, "/api/futures/v3/order", core.AuthPrivate),
	core.Get(RouteV3FuturesOrders, "/api/futures/v3/orders/{instrument_id}", core.AuthPrivate),
	core.Post(RouteV3FuturesCancelAll, "/api/futures/v3/cancel_all", core.AuthPrivate),
	core.Get(RouteV3FuturesFills, "/api/futures/v3/fills", core.AuthPrivate),
	core.Get(RouteV3SwapAccounts, "/api/swap/v3/accounts", core.AuthPrivate),
	core.Get(RouteV3SwapPosition, "/api/swap/v3/position", core.AuthPrivate),
	core.Post(RouteV3SwapOrder, "/api/swap/v3/order", core.AuthPrivate),
	core.Get(RouteV3SwapFills, "/api/swap/v3/fills", core.AuthPrivate),
	core.Get(RouteV3Wallet, "/api/account/v3/wallet", core.AuthPrivate),
	core.Post(RouteV3Transfer, "/api/account/v3/transfer", core.AuthPrivate),
	core.Post(RouteV3Withdrawal, "/api/account/v3/withdrawal", core.AuthPrivate),
)

func DescriptorV3() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   NameV3,
		Scheme: NewSchemeV3(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeSpot}:           V3URL,
			{Market: core.MarketTypeInverseFutures}: V3URL,
			{Market: core.MarketTypeLinearFutures}:  V3URL,
		},
		Routes: RoutesV3,
	}
}

func NewClientV3(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return DescriptorV3().NewClient(cfg, opts...)
}
