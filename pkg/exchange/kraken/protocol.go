// Package kraken implements the Kraken Futures signing rule and the
// challenge-authenticated websocket feed.
package kraken

import (
	"crypto/sha256"
	"crypto/sha512"

	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "kraken"

const (
	ProductionURL = "https://futures.kraken.com/derivatives"
	SandboxURL    = "https://demo-futures.kraken.com/derivatives"
)

// MAC is HMAC-SHA512 over the SHA-256 of the message, keyed by the
// base64-decoded secret, base64 encoded.
var MAC = sign.MAC{
	Hash:        sha512.New,
	Encoding:    sign.Base64,
	KeyDecoding: sign.KeyBase64,
	Prehash:     sha256.New,
}

// NewScheme signs postData + nonce + path, where postData is the encoded
// query. Paths are signed without the "/derivatives" prefix of the base URL.
// Each scheme owns its nonce counter.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:     Name,
		Ordering: sign.InsertionOrder,
		Encoding: sign.Escaped,
		Nonce:    sign.NewCounter(),
		Canonical: func(m sign.Material) string {
			return m.Query + m.Nonce + m.Path
		},
		MAC: MAC,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("APIKey", m.Key)
			out.SetHeader("Nonce", m.Nonce)
			out.SetHeader("Authent", signature)
		},
	}
}

const (
	RouteFeeSchedules   = "feeSchedules"
	RouteOrderBook      = "orderBook"
	RouteTickers        = "tickers"
	RouteInstruments    = "instruments"
	RouteHistory        = "history"
	RouteAccounts       = "accounts"
	RouteOpenPositions  = "openPositions"
	RouteOpenOrders     = "openOrders"
	RouteRecentOrders   = "recentOrders"
	RouteFills          = "fills"
	RouteNotifications  = "notifications"
	RouteFeeVolumes     = "feeVolumes"
	RouteTransfers      = "transfers"
	RouteSendOrder      = "sendOrder"
	RouteEditOrder      = "editOrder"
	RouteCancelOrder    = "cancelOrder"
	RouteCancelAll      = "cancelAllOrders"
	RouteCancelAllAfter = "cancelAllOrdersAfter"
	RouteBatchOrder     = "batchOrder"
	RouteTransfer       = "transfer"
	RouteWithdrawal     = "withdrawal"
)

var Routes = core.NewRoutes(
	core.Get(RouteFeeSchedules, "/api/v3/feeschedules", core.AuthPublic),
	core.Get(RouteOrderBook, "/api/v3/orderbook", core.AuthPublic),
	core.Get(RouteTickers, "/api/v3/tickers", core.AuthPublic),
	core.Get(RouteInstruments, "/api/v3/instruments", core.AuthPublic),
	core.Get(RouteHistory, "/api/v3/history", core.AuthPublic),
	core.Get(RouteAccounts, "/api/v3/accounts", core.AuthPrivate),
	core.Get(RouteOpenPositions, "/api/v3/openpositions", core.AuthPrivate),
	core.Get(RouteOpenOrders, "/api/v3/openorders", core.AuthPrivate),
	core.Get(RouteRecentOrders, "/api/v3/recentorders", core.AuthPrivate),
	core.Get(RouteFills, "/api/v3/fills", core.AuthPrivate),
	core.Get(RouteNotifications, "/api/v3/notifications", core.AuthPrivate),
	core.Get(RouteFeeVolumes, "/api/v3/feeschedules/volumes", core.AuthPrivate),
	core.Get(RouteTransfers, "/api/v3/transfers", core.AuthPrivate),
	core.Post(RouteSendOrder, "/api/v3/sendorder", core.AuthPrivate),
	core.Post(RouteEditOrder, "/api/v3/editorder", core.AuthPrivate),
	core.Post(RouteCancelOrder, "/api/v3/cancelorder", core.AuthPrivate),
	core.Post(RouteCancelAll, "/api/v3/cancelallorders", core.AuthPrivate),
	core.Post(RouteCancelAllAfter, "/api/v3/cancelallordersafter", core.AuthPrivate),
	core.Post(RouteBatchOrder, "/api/v3/batchorder", core.AuthPrivate),
	core.Post(RouteTransfer, "/api/v3/transfer", core.AuthPrivate),
	core.Post(RouteWithdrawal, "/api/v3/withdrawal", core.AuthPrivate),
)

// BatchParams wraps batch instructions as the single "json" parameter the
// batchorder endpoint expects.
func BatchParams(instructions ...any) core.Params {
	return core.NewParams("json", map[string]any{"batchOrder": instructions})
}

// Detector flags {"result": "error"} bodies.
func Detector(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	result, _ := obj["result"].(string)
	return result == "error"
}

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeInverseFutures}:                ProductionURL,
			{Market: core.MarketTypeLinearFutures}:                 ProductionURL,
			{Market: core.MarketTypeInverseFutures, Sandbox: true}: SandboxURL,
			{Market: core.MarketTypeLinearFutures, Sandbox: true}:  SandboxURL,
		},
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, Detector),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
