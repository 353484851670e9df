package bybit

import (
	"strings"

	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "bybit"

const (
	ProductionURL = "https://api.bybit.com"
	SandboxURL    = "https://api-testnet.bybit.com"
)

// NewScheme returns the Bybit signing rule. Parameters are sent in
// insertion order; only the signed string is sorted.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:     Name,
		Ordering: sign.InsertionOrder,
		Encoding: sign.Escaped,
		Stamp:    sign.UnixMillis,
		AuthParams: func(m sign.Material) core.Params {
			return core.NewParams("api_key", m.Key, "timestamp", m.Timestamp)
		},
		Canonical: sign.SortedJoin,
		MAC:       sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, _ sign.Material, signature string) {
			out.AppendQuery("sign", signature)
		},
		AttachKey: func(out *sign.Output, creds core.Credentials) {
			out.AppendQuery("api_key", creds.APIKey)
		},
	}
}

const (
	RouteOrderBook     = "orderBook"
	RouteKlines        = "klines"
	RouteTickers       = "tickers"
	RouteTrades        = "trades"
	RouteSymbols       = "symbols"
	RouteOpenInterest  = "openInterest"
	RouteCreateOrder   = "createOrder"
	RouteCancelOrder   = "cancelOrder"
	RouteCancelAll     = "cancelAll"
	RouteReplaceOrder  = "replaceOrder"
	RouteOrderList     = "orderList"
	RouteOrder         = "order"
	RoutePositionList  = "positionList"
	RouteLeverageSave  = "leverageSave"
	RouteExecutionList = "executionList"
	RouteWalletBalance = "walletBalance"
	RouteAPIKeyInfo    = "apiKeyInfo"
)

var Routes = core.NewRoutes(
	core.Get(RouteOrderBook, "/v2/public/orderBook/L2", core.AuthPublic),
	core.Get(RouteKlines, "/v2/public/kline/list", core.AuthPublic),
	core.Get(RouteTickers, "/v2/public/tickers", core.AuthPublic),
	core.Get(RouteTrades, "/v2/public/trading-records", core.AuthPublic),
	core.Get(RouteSymbols, "/v2/public/symbols", core.AuthPublic),
	core.Get(RouteOpenInterest, "/v2/public/open-interest", core.AuthPublic),
	core.Post(RouteCreateOrder, "/v2/private/order/create", core.AuthPrivate),
	core.Post(RouteCancelOrder, "/v2/private/order/cancel", core.AuthPrivate),
	core.Post(RouteCancelAll, "/v2/private/order/cancelAll", core.AuthPrivate),
	core.Post(RouteReplaceOrder, "/v2/private/order/replace", core.AuthPrivate),
	core.Get(RouteOrderList, "/v2/private/order/list", core.AuthPrivate),
	core.Get(RouteOrder, "/v2/private/order", core.AuthPrivate),
	core.Get(RoutePositionList, "/v2/private/position/list", core.AuthPrivate),
	core.Post(RouteLeverageSave, "/user/leverage/save", core.AuthPrivate),
	core.Get(RouteExecutionList, "/v2/private/execution/list", core.AuthPrivate),
	core.Get(RouteWalletBalance, "/v2/private/wallet/balance", core.AuthPrivate),
	core.Get(RouteAPIKeyInfo, "/open-api/api-key", core.AuthPrivate),
)

// Detector flags a non-zero ret_code, which Bybit returns with HTTP 200.
func Detector(value any) bool {
	obj, ok := value.(map[string]any)
	return ok && rest.Truthy(obj["ret_code"])
}

func Descriptor() *exchange.Descriptor {
	urls := make(map[exchange.Endpoint]string)
	for _, market := range []core.MarketType{core.MarketTypeInverseFutures, core.MarketTypeLinearFutures, core.MarketTypeSpot} {
		urls[exchange.Endpoint{Market: market}] = ProductionURL
		urls[exchange.Endpoint{Market: market, Sandbox: true}] = SandboxURL
	}
	return &exchange.Descriptor{
		Name:     Name,
		Scheme:   NewScheme(),
		BaseURLs: urls,
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, Detector),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}

func formatSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}
