// Package binance implements the Binance signing rule and streams for spot,
// USD-M futures and COIN-M futures.
//
// Signed calls carry recvWindow and timestamp, are sorted by key and signed
// with HMAC-SHA256 over the query string; the key travels in the
// X-MBX-APIKEY header. User data streams use a listen key issued over REST
// and kept alive by the session.
//
// Example usage:
//
//	client, err := binance.NewClient(core.DefaultConfig(binance.Name).WithCredentials(creds))
//	res, err := client.Private(ctx, "/api/v3/account", http.MethodGet, nil)
package binance
