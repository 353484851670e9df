package binance

import (
	"fmt"
	"time"

	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const Name = "binance"

const (
	SpotURL               = "https://api.binance.com"
	SpotSandboxURL        = "https://testnet.binance.vision"
	FuturesURL            = "https://fapi.binance.com"
	FuturesSandboxURL     = "https://testnet.binancefuture.com"
	CoinFuturesURL        = "https://dapi.binance.com"
	CoinFuturesSandboxURL = "https://testnet.binancefuture.com"
)

// DefaultRecvWindow is the validity window, in milliseconds, of signed calls.
const DefaultRecvWindow = 5000

// clockSkew backdates signing timestamps so a fast local clock is not rejected.
const clockSkew = time.Second

// NewScheme returns the Binance signing rule. A zero recvWindow omits the parameter.
func NewScheme(recvWindow int) *sign.Scheme {
	return &sign.Scheme{
		Name:     Name,
		Ordering: sign.SortedOrder,
		Encoding: sign.Escaped,
		Clock:    func() time.Time { return time.Now().Add(-clockSkew) },
		Stamp:    sign.UnixMillis,
		AuthParams: func(m sign.Material) core.Params {
			p := core.NewParams()
			if recvWindow > 0 {
				p = p.Set("recvWindow", recvWindow)
			}
			return p.Set("timestamp", m.Timestamp)
		},
		Canonical: sign.QueryString,
		MAC:       sign.HMACSHA256Hex,
		Attach: func(out *sign.Output, m sign.Material, signature string) {
			out.AppendQuery("signature", signature)
			out.SetHeader("X-MBX-APIKEY", m.Key)
		},
		AttachKey: func(out *sign.Output, creds core.Credentials) {
			out.SetHeader("X-MBX-APIKEY", creds.APIKey)
		},
	}
}

// Route names shared by every market table.
const (
	RoutePing             = "ping"
	RouteTime             = "time"
	RouteExchangeInfo     = "exchangeInfo"
	RouteDepth            = "depth"
	RouteTrades           = "trades"
	RouteHistoricalTrades = "historicalTrades"
	RouteKlines           = "klines"
	RouteTicker24h        = "ticker24hr"
	RouteNewOrder         = "newOrder"
	RouteQueryOrder       = "queryOrder"
	RouteCancelOrder      = "cancelOrder"
	RouteOpenOrders       = "openOrders"
	RouteAccount          = "account"
	RouteUserTrades       = "userTrades"
	RouteListenKeyCreate  = "listenKeyCreate"
	RouteListenKeyRenew   = "listenKeyRenew"
	RouteListenKeyClose   = "listenKeyClose"
	RoutePositionRisk     = "positionRisk"
	RouteLeverage         = "leverage"
)

var SpotRoutes = core.NewRoutes(
	core.Get(RoutePing, "/api/v3/ping", core.AuthPublic),
	core.Get(RouteTime, "/api/v3/time", core.AuthPublic),
	core.Get(RouteExchangeInfo, "/api/v3/exchangeInfo", core.AuthPublic).Weighted(10),
	core.Get(RouteDepth, "/api/v3/depth", core.AuthPublic).Weighted(5),
	core.Get(RouteTrades, "/api/v3/trades", core.AuthPublic),
	core.Get(RouteHistoricalTrades, "/api/v3/historicalTrades", core.AuthKey).Weighted(5),
	core.Get(RouteKlines, "/api/v3/klines", core.AuthPublic),
	core.Get(RouteTicker24h, "/api/v3/ticker/24hr", core.AuthPublic),
	core.Post(RouteNewOrder, "/api/v3/order", core.AuthPrivate),
	core.Get(RouteQueryOrder, "/api/v3/order", core.AuthPrivate).Weighted(2),
	core.Delete(RouteCancelOrder, "/api/v3/order", core.AuthPrivate),
	core.Get(RouteOpenOrders, "/api/v3/openOrders", core.AuthPrivate).Weighted(3),
	core.Get(RouteAccount, "/api/v3/account", core.AuthPrivate).Weighted(10),
	core.Get(RouteUserTrades, "/api/v3/myTrades", core.AuthPrivate).Weighted(10),
	core.Post(RouteListenKeyCreate, "/api/v3/userDataStream", core.AuthKey),
	core.Put(RouteListenKeyRenew, "/api/v3/userDataStream", core.AuthKey),
	core.Delete(RouteListenKeyClose, "/api/v3/userDataStream", core.AuthKey),
)

var FuturesRoutes = futuresRoutes("/fapi/v1")

var CoinFuturesRoutes = futuresRoutes("/dapi/v1")

func futuresRoutes(prefix string) core.Routes {
	return core.NewRoutes(
		core.Get(RoutePing, prefix+"/ping", core.AuthPublic),
		core.Get(RouteTime, prefix+"/time", core.AuthPublic),
		core.Get(RouteExchangeInfo, prefix+"/exchangeInfo", core.AuthPublic),
		core.Get(RouteDepth, prefix+"/depth", core.AuthPublic).Weighted(5),
		core.Get(RouteTrades, prefix+"/trades", core.AuthPublic),
		core.Get(RouteHistoricalTrades, prefix+"/historicalTrades", core.AuthKey).Weighted(20),
		core.Get(RouteKlines, prefix+"/klines", core.AuthPublic),
		core.Get(RouteTicker24h, prefix+"/ticker/24hr", core.AuthPublic),
		core.Post(RouteNewOrder, prefix+"/order", core.AuthPrivate),
		core.Get(RouteQueryOrder, prefix+"/order", core.AuthPrivate),
		core.Delete(RouteCancelOrder, prefix+"/order", core.AuthPrivate),
		core.Get(RouteOpenOrders, prefix+"/openOrders", core.AuthPrivate),
		core.Get(RouteAccount, prefix+"/account", core.AuthPrivate).Weighted(5),
		core.Get(RouteUserTrades, prefix+"/userTrades", core.AuthPrivate).Weighted(5),
		core.Get(RoutePositionRisk, prefix+"/positionRisk", core.AuthPrivate).Weighted(5),
		core.Post(RouteLeverage, prefix+"/leverage", core.AuthPrivate),
		core.Post(RouteListenKeyCreate, prefix+"/listenKey", core.AuthKey),
		core.Put(RouteListenKeyRenew, prefix+"/listenKey", core.AuthKey),
		core.Delete(RouteListenKeyClose, prefix+"/listenKey", core.AuthKey),
	)
}

// Descriptor returns the Binance venue description with the default recvWindow.
func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(DefaultRecvWindow),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeSpot}:                          SpotURL,
			{Market: core.MarketTypeSpot, Sandbox: true}:           SpotSandboxURL,
			{Market: core.MarketTypeLinearFutures}:                 FuturesURL,
			{Market: core.MarketTypeLinearFutures, Sandbox: true}:  FuturesSandboxURL,
			{Market: core.MarketTypeInverseFutures}:                CoinFuturesURL,
			{Market: core.MarketTypeInverseFutures, Sandbox: true}: CoinFuturesSandboxURL,
		},
		Routes: SpotRoutes,
		MarketRoutes: map[core.MarketType]core.Routes{
			core.MarketTypeLinearFutures:  FuturesRoutes,
			core.MarketTypeInverseFutures: CoinFuturesRoutes,
		},
	}
}

// NewClient builds a REST client for cfg.Market.
func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	if cfg.Venue != Name {
		return nil, fmt.Errorf("config venue %q is not %s", cfg.Venue, Name)
	}
	return Descriptor().NewClient(cfg, opts...)
}
