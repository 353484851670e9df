// Package huobi implements the Huobi derivatives (DM futures and coin
// swaps) signing rule and the gzip-compressed streams.
package huobi

import (
	"venuelink/pkg/core"
	"venuelink/pkg/exchange"
	"venuelink/pkg/rest"
	"venuelink/pkg/sign"
)

const (
	Name          = "huobi"
	Host          = "api.hbdm.com"
	ProductionURL = "https://" + Host
)

// authParams are merged into every signed query.
func authParams(m sign.Material) core.Params {
	return core.NewParams(
		"AccessKeyId", m.Key,
		"SignatureMethod", "HmacSHA256",
		"SignatureVersion", "2",
		"Timestamp", m.Timestamp,
	)
}

// NewScheme signs "METHOD\nhost\npath\nquery" with base64
// HMAC-SHA256 and appends it as the Signature query parameter. POST
// parameters travel as a JSON body outside the signature.
func NewScheme() *sign.Scheme {
	return &sign.Scheme{
		Name:       Name,
		Ordering:   sign.PairOrder,
		Encoding:   sign.Escaped,
		BodyParams: true,
		Stamp:      sign.ISO8601Seconds,
		AuthParams: authParams,
		Canonical:  sign.MethodHostPathQuery,
		MAC:        sign.HMACSHA256Base64,
		Attach: func(out *sign.Output, _ sign.Material, signature string) {
			out.AppendQuery("Signature", signature)
		},
	}
}

const (
	RouteContractInfo      = "contractInfo"
	RouteContractIndex     = "contractIndex"
	RoutePriceLimit        = "priceLimit"
	RouteOpenInterest      = "openInterest"
	RouteDepth             = "depth"
	RouteKline             = "kline"
	RouteMerged            = "merged"
	RouteTrade             = "trade"
	RouteHistoryTrade      = "historyTrade"
	RouteAccountInfo       = "accountInfo"
	RoutePositionInfo      = "positionInfo"
	RouteSubAccountList    = "subAccountList"
	RouteSubAccountInfo    = "subAccountInfo"
	RouteSubPositionInfo   = "subPositionInfo"
	RouteFinancialRecord   = "financialRecord"
	RouteOrder             = "order"
	RouteBatchOrder        = "batchOrder"
	RouteCancel            = "cancel"
	RouteCancelAll         = "cancelAll"
	RouteOrderInfo         = "orderInfo"
	RouteOrderDetail       = "orderDetail"
	RouteOpenOrders        = "openOrders"
	RouteHistoryOrders     = "historyOrders"
	RouteMatchResults      = "matchResults"
	RouteSwapContractInfo  = "swapContractInfo"
	RouteSwapIndex         = "swapIndex"
	RouteSwapFundingRate   = "swapFundingRate"
	RouteSwapDepth         = "swapDepth"
	RouteSwapKline         = "swapKline"
	RouteSwapAccountInfo   = "swapAccountInfo"
	RouteSwapPositionInfo  = "swapPositionInfo"
	RouteSwapOrder         = "swapOrder"
	RouteSwapCancel        = "swapCancel"
	RouteSwapCancelAll     = "swapCancelAll"
	RouteSwapOpenOrders    = "swapOpenOrders"
	RouteSwapHistoryOrders = "swapHistoryOrders"
)

var Routes = core.NewRoutes(
	core.Get(RouteContractInfo, "/api/v1/contract_contract_info", core.AuthPublic),
	core.Get(RouteContractIndex, "/api/v1/contract_index", core.AuthPublic),
	core.Get(RoutePriceLimit, "/api/v1/contract_price_limit", core.AuthPublic),
	core.Get(RouteOpenInterest, "/api/v1/contract_open_interest", core.AuthPublic),
	core.Get(RouteDepth, "/market/depth", core.AuthPublic),
	core.Get(RouteKline, "/market/history/kline", core.AuthPublic),
	core.Get(RouteMerged, "/market/detail/merged", core.AuthPublic),
	core.Get(RouteTrade, "/market/trade", core.AuthPublic),
	core.Get(RouteHistoryTrade, "/market/history/trade", core.AuthPublic),
	core.Post(RouteAccountInfo, "/api/v1/contract_account_info", core.AuthPrivate),
	core.Post(RoutePositionInfo, "/api/v1/contract_position_info", core.AuthPrivate),
	core.Post(RouteSubAccountList, "/api/v1/contract_sub_account_list", core.AuthPrivate),
	core.Post(RouteSubAccountInfo, "/api/v1/contract_sub_account_info", core.AuthPrivate),
	core.Post(RouteSubPositionInfo, "/api/v1/contract_sub_position_info", core.AuthPrivate),
	core.Post(RouteFinancialRecord, "/api/v1/contract_financial_record", core.AuthPrivate),
	core.Post(RouteOrder, "/api/v1/contract_order", core.AuthPrivate),
	core.Post(RouteBatchOrder, "/api/v1/contract_batchorder", core.AuthPrivate),
	core.Post(RouteCancel, "/api/v1/contract_cancel", core.AuthPrivate),
	core.Post(RouteCancelAll, "/api/v1/contract_cancelall", core.AuthPrivate),
	core.Post(RouteOrderInfo, "/api/v1/contract_order_info", core.AuthPrivate),
	core.Post(RouteOrderDetail, "/api/v1/contract_order_detail", core.AuthPrivate),
	core.Post(RouteOpenOrders, "/api/v1/contract_openorders", core.AuthPrivate),
	core.Post(RouteHistoryOrders, "/api/v1/contract_hisorders", core.AuthPrivate),
	core.Post(RouteMatchResults, "/api/v1/contract_matchresults", core.AuthPrivate),
	core.Get(RouteSwapContractInfo, "/swap-api/v1/swap_contract_info", core.AuthPublic),
	core.Get(RouteSwapIndex, "/swap-api/v1/swap_index", core.AuthPublic),
	core.Get(RouteSwapFundingRate, "/swap-api/v1/swap_funding_rate", core.AuthPublic),
	core.Get(RouteSwapDepth, "/swap-ex/market/depth", core.AuthPublic),
	core.Get(RouteSwapKline, "/swap-ex/market/history/kline", core.AuthPublic),
	core.Post(RouteSwapAccountInfo, "/swap-api/v1/swap_account_info", core.AuthPrivate),
	core.Post(RouteSwapPositionInfo, "/swap-api/v1/swap_position_info", core.AuthPrivate),
	core.Post(RouteSwapOrder, "/swap-api/v1/swap_order", core.AuthPrivate),
	core.Post(RouteSwapCancel, "/swap-api/v1/swap_cancel", core.AuthPrivate),
	core.Post(RouteSwapCancelAll, "/swap-api/v1/swap_cancelall", core.AuthPrivate),
	core.Post(RouteSwapOpenOrders, "/swap-api/v1/swap_openorders", core.AuthPrivate),
	core.Post(RouteSwapHistoryOrders, "/swap-api/v1/swap_hisorders", core.AuthPrivate),
)

func Descriptor() *exchange.Descriptor {
	return &exchange.Descriptor{
		Name:   Name,
		Scheme: NewScheme(),
		BaseURLs: map[exchange.Endpoint]string{
			{Market: core.MarketTypeInverseFutures}: ProductionURL,
		},
		Routes: Routes,
	}
}

func NewClient(cfg *core.Config, opts ...rest.Option) (*rest.Client, error) {
	return Descriptor().NewClient(cfg, opts...)
}
