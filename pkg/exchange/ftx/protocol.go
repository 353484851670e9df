// Package ftx implements the FTX signing rule and websocket stream.
package ftx

import (
	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const (
	Name          = "ftx"
	ProductionURL = "https://ftx.com"
)

// NewScheme signs timestamp + METHOD + path (+ "?query") + JSON body.
// POST and DELETE parameters travel as the body. A subaccount on the
// credentials is sent as FTX-SUBACCOUNT.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:       Name,
		Ordering:   sign.InsertionOrder,
		Encoding:   sign.Escaped,
		BodyParams: true,
		DeleteBody: true,
		Stamp:      sign.UnixMillis,
		Canonical:  sign.StampMethodPathBody,
		MAC:        sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.SetHeader("FTX-KEY", m.Key)
			out.SetHeader("FTX-SIGN", signature)
			out.SetHeader("FTX-TS", m.Timestamp)
			if m.Subaccount != "" {
				out.SetHeader("FTX-SUBACCOUNT", m.Subaccount)
			}
		},
	}
}

const (
	RouteMarkets           = "markets"
	RouteMarket            = "market"
	RouteOrderBook         = "orderBook"
	RouteTrades            = "trades"
	RouteCandles           = "candles"
	RouteFutures           = "futures"
	RouteFuture            = "future"
	RouteFutureStats       = "futureStats"
	RouteFundingRates      = "fundingRates"
	RouteAccount           = "account"
	RoutePositions         = "positions"
	RouteLeverage          = "leverage"
	RouteSubaccounts       = "subaccounts"
	RouteCreateSubaccount  = "createSubaccount"
	RouteSubaccountBalance = "subaccountBalances"
	RouteBalances          = "balances"
	RouteAllBalances       = "allBalances"
	RouteOpenOrders        = "openOrders"
	RouteOrderHistory      = "orderHistory"
	RoutePlaceOrder        = "placeOrder"
	RouteModifyOrder       = "modifyOrder"
	RouteOrderStatus       = "orderStatus"
	RouteCancelOrder       = "cancelOrder"
	RouteCancelByClientID  = "cancelOrderByClientID"
	RouteCancelAll         = "cancelAll"
	RouteTriggerOrders     = "triggerOrders"
	RoutePlaceTrigger      = "placeTriggerOrder"
	RouteCancelTrigger     = "cancelTriggerOrder"
	RouteFills             = "fills"
	RouteFundingPayments   = "fundingPayments"
)

var Routes = core.NewRoutes(
	core.Get(RouteMarkets, "/api/markets", core.AuthPublic),
	core.Get(RouteMarket, "/api/markets/{market_name}", core.AuthPublic),
	core.Get(RouteOrderBook, "/api/markets/{market_name}/orderbook", core.AuthPublic),
	core.Get(RouteTrades, "/api/markets/{market_name}/trades", core.AuthPublic),
	core.Get(RouteCandles, "/api/markets/{market_name}/candles", core.AuthPublic),
	core.Get(RouteFutures, "/api/futures", core.AuthPublic),
	core.Get(RouteFuture, "/api/futures/{future_name}", core.AuthPublic),
	core.Get(RouteFutureStats, "/api/futures/{future_name}/stats", core.AuthPublic),
	core.Get(RouteFundingRates, "/api/funding_rates", core.AuthPublic),
	core.Get(RouteAccount, "/api/account", core.AuthPrivate),
	core.Get(RoutePositions, "/api/positions", core.AuthPrivate),
	core.Post(RouteLeverage, "/api/account/leverage", core.AuthPrivate),
	core.Get(RouteSubaccounts, "/api/subaccounts", core.AuthPrivate),
	core.Post(RouteCreateSubaccount, "/api/subaccounts", core.AuthPrivate),
	core.Get(RouteSubaccountBalance, "/api/subaccounts/{nickname}/balances", core.AuthPrivate),
	core.Get(RouteBalances, "/api/wallet/balances", core.AuthPrivate),
	core.Get(RouteAllBalances, "/api/wallet/all_balances", core.AuthPrivate),
	core.Get(RouteOpenOrders, "/api/orders", core.AuthPrivate),
	core.Get(RouteOrderHistory, "/api/orders/history", core.AuthPrivate),
	core.Post(RoutePlaceOrder, "/api/orders", core.AuthPrivate),
	core.Post(RouteModifyOrder, "/api/orders/{order_id}/modify", core.AuthPrivate),
	core.Get(RouteOrderStatus, "/api/orders/{order_id}", core.AuthPrivate),
	core.Delete(RouteCancelOrder, "/api/orders/{order_id}", core.AuthPrivate),
	core.Delete(RouteCancelByClientID, "/api/orders/by_client_id/{client_order_id}", core.AuthPrivate),
	core.Delete(RouteCancelAll, "/api/orders", core.AuthPrivate),
	core.Get(RouteTriggerOrders, "/api/conditional_orders", core.AuthPrivate),
	core.Post(RoutePlaceTrigger, "/api/conditional_orders", core.AuthPrivate),
	core.Delete(RouteCancelTrigger, "/api/conditional_orders/{conditional_order_id}", core.AuthPrivate),
	core.Get(RouteFills, "/api/fills", core.AuthPrivate),
	core.Get(RouteFundingPayments, "/api/funding_payments", core.AuthPrivate),
)

// Detector flags {"success": false} bodies.
func Detector(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	success, ok := obj["success"].(bool)
	return ok && !success
}

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeSpot}:          ProductionURL,
			{Market: core.MarketTypeLinearFutures}: ProductionURL,
			{Market: core.MarketTypeOptions}:       ProductionURL,
		},
		Routes:   Routes,
		Detector: rest.AnyOf(rest.DefaultDetector, Detector),
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
